package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job is an open position posted by the admins.
type Job struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Type        string             `bson:"type,omitempty" json:"type,omitempty"`
	Deadline    *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Open        bool               `bson:"open" json:"open"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AcceptsApplications reports whether the job can still be applied to.
func (j *Job) AcceptsApplications(now time.Time) bool {
	if !j.Open {
		return false
	}
	return j.Deadline == nil || now.Before(*j.Deadline)
}

// JobInput is the admin create/update payload for a job.
type JobInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    *string `json:"location"`
	Type        *string `json:"type"`
	Deadline    *string `json:"deadline"`
	Open        *bool   `json:"open"`
}

// JobApplicationInput is the public application form.
type JobApplicationInput struct {
	Name        string `form:"name" json:"name"`
	Email       string `form:"email" json:"email"`
	Phone       string `form:"phone" json:"phone"`
	CoverLetter string `form:"coverLetter" json:"coverLetter"`
}

type ApplicationStatus string

const (
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationReviewed  ApplicationStatus = "reviewed"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationSubmitted, ApplicationReviewed, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// JobApplication is a candidate's application to a Job.
type JobApplication struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobID       primitive.ObjectID `bson:"jobId" json:"jobId"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CoverLetter string             `bson:"coverLetter,omitempty" json:"coverLetter,omitempty"`
	Resume      string             `bson:"resume,omitempty" json:"resume,omitempty"`
	Status      ApplicationStatus  `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type InvestmentKind string

const (
	InvestmentKindInvestment  InvestmentKind = "investment"
	InvestmentKindPartnership InvestmentKind = "partnership"
)

type IntakeStatus string

const (
	IntakeNew       IntakeStatus = "new"
	IntakeContacted IntakeStatus = "contacted"
	IntakeClosed    IntakeStatus = "closed"
)

// Valid reports whether s is a known intake status.
func (s IntakeStatus) Valid() bool {
	return s == IntakeNew || s == IntakeContacted || s == IntakeClosed
}

// Investment is an investor or partnership enquiry.
type Investment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Organization string             `bson:"organization,omitempty" json:"organization,omitempty"`
	Kind         InvestmentKind     `bson:"kind" json:"kind"`
	Amount       float64            `bson:"amount,omitempty" json:"amount,omitempty"`
	Message      string             `bson:"message,omitempty" json:"message,omitempty"`
	Status       IntakeStatus       `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// InvestmentInput is the public investment intake form.
type InvestmentInput struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Organization string  `json:"organization"`
	Kind         string  `json:"kind"`
	Amount       float64 `json:"amount"`
	Message      string  `json:"message"`
}

type ReviewDecision string

const (
	DecisionPending  ReviewDecision = "pending"
	DecisionApproved ReviewDecision = "approved"
	DecisionRejected ReviewDecision = "rejected"
)

// WomenInitiative is an application to the women's empowerment programme.
type WomenInitiative struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Email        string              `bson:"email" json:"email"`
	Phone        string              `bson:"phone" json:"phone"`
	Skills       []string            `bson:"skills,omitempty" json:"skills,omitempty"`
	Experience   string              `bson:"experience,omitempty" json:"experience,omitempty"`
	Documents    []string            `bson:"documents,omitempty" json:"documents,omitempty"`
	Status       ReviewDecision      `bson:"status" json:"status"`
	ReviewerNote string              `bson:"reviewerNote,omitempty" json:"reviewerNote,omitempty"`
	ReviewedBy   *primitive.ObjectID `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// WomenInitiativeInput is the public application form; skills may be
// repeated or comma separated.
type WomenInitiativeInput struct {
	Name       string   `form:"name" json:"name"`
	Email      string   `form:"email" json:"email"`
	Phone      string   `form:"phone" json:"phone"`
	Skills     []string `form:"skills" json:"skills"`
	Experience string   `form:"experience" json:"experience"`
}

// DecisionInput is the admin approve/reject payload.
type DecisionInput struct {
	Decision ReviewDecision `json:"decision"`
	Note     string         `json:"note"`
}

type InquiryKind string

const (
	InquiryContact  InquiryKind = "contact"
	InquiryDiaspora InquiryKind = "diaspora"
	InquirySupport  InquiryKind = "support"
)

// Valid reports whether k is a known inquiry kind.
func (k InquiryKind) Valid() bool {
	return k == InquiryContact || k == InquiryDiaspora || k == InquirySupport
}

// Inquiry is a static form submission (contact, diaspora, support).
type Inquiry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind      InquiryKind        `bson:"kind" json:"kind"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Subject   string             `bson:"subject,omitempty" json:"subject,omitempty"`
	Message   string             `bson:"message" json:"message"`
	Country   string             `bson:"country,omitempty" json:"country,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// InquiryInput is the static form payload.
type InquiryInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Country string `json:"country"`
}

// DecisionNotice is queued when an admin approves or rejects an application.
type DecisionNotice struct {
	Programme string         `json:"programme"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone,omitempty"`
	Decision  ReviewDecision `json:"decision"`
	Note      string         `json:"note,omitempty"`
}
