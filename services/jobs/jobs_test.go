package jobs

import (
	"context"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"homehub/database/repository/records/recordstest"
	"homehub/models"
	"homehub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFiles struct{ saved []string }

func (f *memFiles) Save(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	ref := folder + "-" + file.Filename
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *memFiles) Delete(ctx context.Context, ref string) error { return nil }

func newJobs() (*DefaultJobService, *memFiles) {
	files := &memFiles{}
	return &DefaultJobService{
		Jobs:         recordstest.NewMemStore[models.Job](),
		Applications: recordstest.NewMemStore[models.JobApplication](),
		Files:        files,
		Now:          func() time.Time { return time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC) },
	}, files
}

func str(s string) *string { return &s }

func resume() *multipart.FileHeader {
	return &multipart.FileHeader{Filename: "cv.pdf", Size: 2048}
}

func TestPublicListHidesClosedAndExpiredJobs(t *testing.T) {
	svc, _ := newJobs()
	ctx := context.Background()
	closed := false

	_, err := svc.CreateJob(ctx, models.JobInput{Title: "Plumber", Description: "Fix pipes"})
	require.NoError(t, err)
	_, err = svc.CreateJob(ctx, models.JobInput{Title: "Old", Description: "Gone", Deadline: str("2026-01-15")})
	require.NoError(t, err)
	_, err = svc.CreateJob(ctx, models.JobInput{Title: "Draft", Description: "Later", Open: &closed})
	require.NoError(t, err)

	public, err := svc.ListJobs(ctx, false, utils.Page{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Plumber", public[0].Title)

	all, err := svc.ListJobs(ctx, true, utils.Page{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestApply(t *testing.T) {
	svc, files := newJobs()
	ctx := context.Background()
	job, err := svc.CreateJob(ctx, models.JobInput{Title: "Plumber", Description: "Fix pipes"})
	require.NoError(t, err)

	input := models.JobApplicationInput{Name: "Ann", Email: "Ann@Example.com"}
	_, err = svc.Apply(ctx, job.ID, input, nil)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err), "resume is required")

	app, err := svc.Apply(ctx, job.ID, input, resume())
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", app.Email)
	assert.Equal(t, models.ApplicationSubmitted, app.Status)
	assert.Equal(t, "resumes-cv.pdf", app.Resume)

	_, err = svc.Apply(ctx, job.ID, input, resume())
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))
	assert.Len(t, files.saved, 1)

	updated, err := svc.SetApplicationStatus(ctx, app.ID, models.ApplicationAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, updated.Status)

	_, err = svc.SetApplicationStatus(ctx, app.ID, "hired")
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	apps, total, err := svc.ListApplications(ctx, &job.ID, models.ApplicationAccepted, utils.Page{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, apps, 1)
}

func TestApplyToClosedJob(t *testing.T) {
	svc, _ := newJobs()
	ctx := context.Background()
	job, err := svc.CreateJob(ctx, models.JobInput{Title: "Old", Description: "Gone", Deadline: str("2026-01-15")})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, job.ID, models.JobApplicationInput{Name: "Ann", Email: "ann@example.com"}, resume())
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
}
