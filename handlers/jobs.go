package handlers

import (
	"net/http"

	"homehub/models"
	"homehub/services/jobs"
	"homehub/services/storage"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// JobHandler serves job postings and applications.
type JobHandler struct {
	Jobs jobs.JobService
	URLs storage.URLResolver
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(svc jobs.JobService, urls storage.URLResolver) *JobHandler {
	return &JobHandler{Jobs: svc, URLs: urls}
}

// ListJobsHandler handles GET /api/jobs (open only) and GET /api/admin/jobs.
func (h *JobHandler) ListJobsHandler(includeClosed bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.Jobs.ListJobs(c.Request.Context(), includeClosed, utils.PageFromQuery(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetJobHandler handles GET /api/jobs/:id.
func (h *JobHandler) GetJobHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.Jobs.GetJob(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CreateJobHandler handles POST /api/admin/jobs.
func (h *JobHandler) CreateJobHandler(c *gin.Context) {
	var input models.JobInput
	if !bindInput(c, &input) {
		return
	}
	job, err := h.Jobs.CreateJob(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// UpdateJobHandler handles PUT /api/admin/jobs/:id.
func (h *JobHandler) UpdateJobHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.JobInput
	if !bindInput(c, &input) {
		return
	}
	job, err := h.Jobs.UpdateJob(c.Request.Context(), id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJobHandler handles DELETE /api/admin/jobs/:id.
func (h *JobHandler) DeleteJobHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Jobs.DeleteJob(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted"})
}

// ApplyHandler handles POST /api/jobs/:id/apply with a multipart "resume".
func (h *JobHandler) ApplyHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.JobApplicationInput
	if !bindInput(c, &input) {
		return
	}

	application, err := h.Jobs.Apply(c.Request.Context(), id, input, uploadedFile(c, "resume"))
	if err != nil {
		getLogger(c).Info("Job application rejected", zap.String("jobId", id.Hex()), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Application received", "id": application.ID})
}

// ListApplicationsHandler handles GET /api/admin/job-applications?jobId=&status=.
func (h *JobHandler) ListApplicationsHandler(c *gin.Context) {
	page := utils.PageFromQuery(c)
	var jobID *primitive.ObjectID
	if raw := c.Query("jobId"); raw != "" {
		id, err := utils.ParseObjectID(raw, "jobId")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		jobID = &id
	}

	applications, total, err := h.Jobs.ListApplications(c.Request.Context(), jobID, models.ApplicationStatus(c.Query("status")), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	for i := range applications {
		applications[i].Resume = h.URLs.Absolute(applications[i].Resume, c.Request)
	}
	respondPage(c, applications, total, page)
}

// SetApplicationStatusHandler handles PATCH /api/admin/job-applications/:id/status.
func (h *JobHandler) SetApplicationStatusHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body statusBody
	if !bindInput(c, &body) {
		return
	}
	application, err := h.Jobs.SetApplicationStatus(c.Request.Context(), id, models.ApplicationStatus(body.Status))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	application.Resume = h.URLs.Absolute(application.Resume, c.Request)
	c.JSON(http.StatusOK, application)
}
