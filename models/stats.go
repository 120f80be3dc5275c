package models

import "time"

// PublicStats is the homepage counter block.
type PublicStats struct {
	Services   int64     `json:"services"`
	Providers  int64     `json:"providers"`
	Bookings   int64     `json:"bookings"`
	Categories int64     `json:"categories"`
	Seekers    int64     `json:"seekers"`
	ComputedAt time.Time `json:"computedAt"`
}

// AdminStats is the admin dashboard breakdown.
type AdminStats struct {
	UsersByRole         map[string]int64 `json:"usersByRole"`
	BookingsByStatus    map[string]int64 `json:"bookingsByStatus"`
	ActiveSubscriptions int64            `json:"activeSubscriptions"`
	ActiveMemberships   int64            `json:"activeMemberships"`
	Services            int64            `json:"services"`
	PendingApplications int64            `json:"pendingApplications"`
	OpenInquiries       int64            `json:"inquiries"`
}

// SweepReport summarises one subscription maintenance run.
type SweepReport struct {
	Expired            int       `json:"expired"`
	Activated          int       `json:"activated"`
	Reminded           int       `json:"reminded"`
	MembershipsExpired int       `json:"membershipsExpired"`
	Failed             int       `json:"failed"`
	Skipped            bool      `json:"skipped"`
	RanAt              time.Time `json:"ranAt"`
}

// ReminderPayload is queued for each subscription nearing its end date.
type ReminderPayload struct {
	SubscriptionID string    `json:"subscriptionId"`
	UserID         string    `json:"userId"`
	PlanName       string    `json:"planName"`
	EndDate        time.Time `json:"endDate"`
	DaysLeft       int       `json:"daysLeft"`
}
