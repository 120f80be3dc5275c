package jobs

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"homehub/database"
	recordsRepo "homehub/database/repository/records"
	"homehub/models"
	"homehub/services/storage"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const resumeFolder = "resumes"

type JobService interface {
	ListJobs(ctx context.Context, includeClosed bool, page utils.Page) ([]models.Job, error)
	GetJob(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	CreateJob(ctx context.Context, input models.JobInput) (*models.Job, error)
	UpdateJob(ctx context.Context, id primitive.ObjectID, input models.JobInput) (*models.Job, error)
	DeleteJob(ctx context.Context, id primitive.ObjectID) error

	Apply(ctx context.Context, jobID primitive.ObjectID, input models.JobApplicationInput, resume *multipart.FileHeader) (*models.JobApplication, error)
	ListApplications(ctx context.Context, jobID *primitive.ObjectID, status models.ApplicationStatus, page utils.Page) ([]models.JobApplication, int64, error)
	SetApplicationStatus(ctx context.Context, id primitive.ObjectID, status models.ApplicationStatus) (*models.JobApplication, error)
}

type DefaultJobService struct {
	Jobs         recordsRepo.Store[models.Job]
	Applications recordsRepo.Store[models.JobApplication]
	Files        storage.FileStore
	Now          func() time.Time
}

func (s *DefaultJobService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultJobService) ListJobs(ctx context.Context, includeClosed bool, page utils.Page) ([]models.Job, error) {
	q := recordsRepo.Query{
		Filter: bson.M{},
		Sort:   bson.D{{Key: "createdAt", Value: -1}},
	}
	if includeClosed {
		q.Skip, q.Limit = page.Skip(), page.Limit
	} else {
		q.Filter["open"] = true
	}
	jobs, err := s.Jobs.Find(ctx, q)
	if err != nil {
		return nil, utils.Internal("Failed to list jobs", err)
	}
	if includeClosed {
		return jobs, nil
	}
	now := s.now()
	open := make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.AcceptsApplications(now) {
			open = append(open, j)
		}
	}
	return open, nil
}

func (s *DefaultJobService) GetJob(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	job, err := s.Jobs.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Job not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load job", err)
	}
	return job, nil
}

func parseDeadline(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *DefaultJobService) CreateJob(ctx context.Context, input models.JobInput) (*models.Job, error) {
	now := s.now()
	job := models.Job{
		ID:          primitive.NewObjectID(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Open:        true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if job.Title == "" || job.Description == "" {
		return nil, utils.BadRequest("Title and description are required")
	}
	if input.Location != nil {
		job.Location = strings.TrimSpace(*input.Location)
	}
	if input.Type != nil {
		job.Type = strings.TrimSpace(*input.Type)
	}
	if input.Deadline != nil {
		deadline, err := parseDeadline(*input.Deadline)
		if err != nil {
			return nil, err
		}
		job.Deadline = deadline
	}
	if input.Open != nil {
		job.Open = *input.Open
	}
	if err := s.Jobs.Insert(ctx, &job); err != nil {
		return nil, utils.Internal("Failed to create job", err)
	}
	return &job, nil
}

func (s *DefaultJobService) UpdateJob(ctx context.Context, id primitive.ObjectID, input models.JobInput) (*models.Job, error) {
	set := bson.M{}
	if title := strings.TrimSpace(input.Title); title != "" {
		set["title"] = title
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		set["description"] = desc
	}
	if input.Location != nil {
		set["location"] = strings.TrimSpace(*input.Location)
	}
	if input.Type != nil {
		set["type"] = strings.TrimSpace(*input.Type)
	}
	if input.Deadline != nil {
		deadline, err := parseDeadline(*input.Deadline)
		if err != nil {
			return nil, err
		}
		set["deadline"] = deadline
	}
	if input.Open != nil {
		set["open"] = *input.Open
	}
	if len(set) == 0 {
		return s.GetJob(ctx, id)
	}
	job, err := s.Jobs.Update(ctx, id, set)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Job not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to update job", err)
	}
	return job, nil
}

// DeleteJob removes the posting. Applications are kept for the record.
func (s *DefaultJobService) DeleteJob(ctx context.Context, id primitive.ObjectID) error {
	if err := s.Jobs.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.NotFound("Job not found")
		}
		return utils.Internal("Failed to delete job", err)
	}
	return nil
}

func (s *DefaultJobService) Apply(ctx context.Context, jobID primitive.ObjectID, input models.JobApplicationInput, resume *multipart.FileHeader) (*models.JobApplication, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.AcceptsApplications(s.now()) {
		return nil, utils.BadRequest("This job is no longer accepting applications")
	}

	app := models.JobApplication{
		ID:          primitive.NewObjectID(),
		JobID:       job.ID,
		Name:        strings.TrimSpace(input.Name),
		Email:       models.NormalizeEmail(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		CoverLetter: strings.TrimSpace(input.CoverLetter),
		Status:      models.ApplicationSubmitted,
	}
	if app.Name == "" || !models.ValidEmail(app.Email) {
		return nil, utils.BadRequest("Name and a valid email are required")
	}
	if resume == nil {
		return nil, utils.BadRequest("A resume file is required")
	}

	existing, err := s.Applications.Count(ctx, bson.M{"jobId": job.ID, "email": app.Email})
	if err != nil {
		return nil, utils.Internal("Failed to submit application", err)
	}
	if existing > 0 {
		return nil, utils.Conflict("You have already applied for this job")
	}

	refs, err := storage.SaveAll(ctx, s.Files, []*multipart.FileHeader{resume}, resumeFolder)
	if err != nil {
		return nil, err
	}
	app.Resume = refs[0]
	app.CreatedAt = s.now()
	app.UpdatedAt = app.CreatedAt
	if err := s.Applications.Insert(ctx, &app); err != nil {
		storage.DeleteAll(ctx, s.Files, refs)
		return nil, utils.Internal("Failed to submit application", err)
	}
	utils.GetLogger().Info("Job application received", zap.String("jobId", job.ID.Hex()), zap.String("applicationId", app.ID.Hex()))
	return &app, nil
}

func (s *DefaultJobService) ListApplications(ctx context.Context, jobID *primitive.ObjectID, status models.ApplicationStatus, page utils.Page) ([]models.JobApplication, int64, error) {
	filter := bson.M{}
	if jobID != nil {
		filter["jobId"] = *jobID
	}
	if status != "" {
		if !status.Valid() {
			return nil, 0, utils.BadRequest("Unknown application status %q", status)
		}
		filter["status"] = status
	}
	total, err := s.Applications.Count(ctx, filter)
	if err != nil {
		return nil, 0, utils.Internal("Failed to list applications", err)
	}
	apps, err := s.Applications.Find(ctx, recordsRepo.Query{
		Filter: filter,
		Sort:   bson.D{{Key: "createdAt", Value: -1}},
		Skip:   page.Skip(),
		Limit:  page.Limit,
	})
	if err != nil {
		return nil, 0, utils.Internal("Failed to list applications", err)
	}
	return apps, total, nil
}

func (s *DefaultJobService) SetApplicationStatus(ctx context.Context, id primitive.ObjectID, status models.ApplicationStatus) (*models.JobApplication, error) {
	if !status.Valid() {
		return nil, utils.BadRequest("Unknown application status %q", status)
	}
	app, err := s.Applications.Update(ctx, id, bson.M{"status": status})
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Application not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to update application", err)
	}
	return app, nil
}
