package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/checkflow/internal/apperror"
	"github.com/example/checkflow/internal/models"
	"github.com/example/checkflow/internal/service"
)

func (s *Server) createJob(c *gin.Context) {
	var payload struct {
		TemplateID    uuid.UUID `json:"templateId" binding:"required"`
		OfficeID      uuid.UUID `json:"officeId" binding:"required"`
		ChecklistDate string    `json:"checklistDate" binding:"required"`
		Shift         string    `json:"shift"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", payload.ChecklistDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "checklistDate must be YYYY-MM-DD"})
		return
	}

	job, err := s.jobs.CreateJob(c.Request.Context(), actorFrom(c), service.CreateJobInput{
		TemplateID:    payload.TemplateID,
		OfficeID:      payload.OfficeID,
		ChecklistDate: date,
		Shift:         models.Shift(payload.Shift),
	})
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (s *Server) listJobs(c *gin.Context) {
	var f models.JobFilter
	if v := c.Query("office"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid office id"})
			return
		}
		f.OfficeID = id
	}
	if v := c.Query("template"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
			return
		}
		f.TemplateID = id
	}
	f.Status = models.PrintJobStatus(c.Query("status"))
	f.Query = c.Query("q")

	jobs, err := s.jobs.ListJobs(c.Request.Context(), actorFrom(c), f)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (s *Server) getJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := s.jobs.GetJob(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) reprintJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := s.jobs.Reprint(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) submitScan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		FileName string `json:"fileName" binding:"required"`
		FileURL  string `json:"fileUrl"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := s.jobs.SubmitScan(c.Request.Context(), actorFrom(c), id, service.SubmitScanInput{
		FileName: payload.FileName,
		FileURL:  payload.FileURL,
	})
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (s *Server) updateRecognitionItems(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		Items []models.RecognizedItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := s.jobs.UpdateRecognitionItems(c.Request.Context(), actorFrom(c), id, payload.Items)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) approveJob(c *gin.Context) {
	s.decision(c, s.jobs.Approve)
}

func (s *Server) rejectJob(c *gin.Context) {
	s.decision(c, s.jobs.Reject)
}

func (s *Server) decision(c *gin.Context, apply func(ctx context.Context, actor *service.Actor, jobID uuid.UUID, comment string) (*models.PrintJob, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		Comment string `json:"comment"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	job, err := apply(c.Request.Context(), actorFrom(c), id, payload.Comment)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
