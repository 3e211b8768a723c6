package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/checkflow/internal/apperror"
	"github.com/example/checkflow/internal/models"
	"github.com/example/checkflow/internal/service"
)

const actorKey = "actor"

// JobService is the slice of the job service the API layer consumes.
type JobService interface {
	CreateJob(ctx context.Context, actor *service.Actor, in service.CreateJobInput) (*models.PrintJob, error)
	ListJobs(ctx context.Context, actor *service.Actor, f models.JobFilter) ([]models.PrintJob, error)
	GetJob(ctx context.Context, actor *service.Actor, jobID uuid.UUID) (*models.PrintJob, error)
	Reprint(ctx context.Context, actor *service.Actor, jobID uuid.UUID) (*models.PrintJob, error)
	SubmitScan(ctx context.Context, actor *service.Actor, jobID uuid.UUID, in service.SubmitScanInput) (*models.PrintJob, error)
	UpdateRecognitionItems(ctx context.Context, actor *service.Actor, jobID uuid.UUID, items []models.RecognizedItem) (*models.PrintJob, error)
	Approve(ctx context.Context, actor *service.Actor, jobID uuid.UUID, comment string) (*models.PrintJob, error)
	Reject(ctx context.Context, actor *service.Actor, jobID uuid.UUID, comment string) (*models.PrintJob, error)
}

// TemplateService is the slice of the template service the API layer consumes.
type TemplateService interface {
	List(ctx context.Context, actor *service.Actor) ([]models.ChecklistTemplate, error)
	Get(ctx context.Context, actor *service.Actor, id uuid.UUID) (*models.ChecklistTemplate, error)
	Create(ctx context.Context, actor *service.Actor, in service.CreateTemplateInput) (*models.ChecklistTemplate, error)
	UpdateSections(ctx context.Context, actor *service.Actor, templateID uuid.UUID, sections []models.ChecklistSection) (*models.ChecklistTemplate, error)
	Publish(ctx context.Context, actor *service.Actor, templateID uuid.UUID) (*models.ChecklistTemplate, error)
	Archive(ctx context.Context, actor *service.Actor, templateID uuid.UUID) (*models.ChecklistTemplate, error)
}

// OfficeService is the slice of the office service the API layer consumes.
type OfficeService interface {
	List(ctx context.Context, actor *service.Actor) ([]models.Office, error)
	Get(ctx context.Context, actor *service.Actor, id uuid.UUID) (*models.Office, error)
}

// UserDirectory resolves the X-User-ID header into a directory user and
// backs the directory listing.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// Server wraps the gin engine and collaborators needed to handle API requests.
type Server struct {
	Engine    *gin.Engine
	jobs      JobService
	templates TemplateService
	offices   OfficeService
	users     UserDirectory
}

// NewServer constructs a new API server and registers routes.
func NewServer(jobs JobService, templates TemplateService, offices OfficeService, users UserDirectory) *Server {
	router := gin.Default()
	srv := &Server{Engine: router, jobs: jobs, templates: templates, offices: offices, users: users}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	api := s.Engine.Group("/api")
	api.GET("/health", s.health)

	authed := api.Group("")
	authed.Use(s.resolveActor())

	authed.GET("/offices", s.listOffices)
	authed.GET("/offices/:id", s.getOffice)

	authed.GET("/users", s.listUsers)

	authed.GET("/templates", s.listTemplates)
	authed.GET("/templates/:id", s.getTemplate)
	authed.POST("/templates", s.createTemplate)
	authed.PUT("/templates/:id/sections", s.updateTemplateSections)
	authed.POST("/templates/:id/publish", s.publishTemplate)
	authed.POST("/templates/:id/archive", s.archiveTemplate)

	authed.POST("/jobs", s.createJob)
	authed.GET("/jobs", s.listJobs)
	authed.GET("/jobs/:id", s.getJob)
	authed.POST("/jobs/:id/reprint", s.reprintJob)
	authed.POST("/jobs/:id/scan", s.submitScan)
	authed.PUT("/jobs/:id/recognition/items", s.updateRecognitionItems)
	authed.POST("/jobs/:id/approve", s.approveJob)
	authed.POST("/jobs/:id/reject", s.rejectJob)
}

// resolveActor turns the X-User-ID header into an actor on the context. A
// missing header passes through with no actor; services answer with
// unauthenticated. Authentication itself happens upstream of this service.
func (s *Server) resolveActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-User-ID")
		if header == "" {
			c.Next()
			return
		}
		userID, err := uuid.Parse(header)
		if err != nil {
			apperror.Respond(c, apperror.Unauthenticated("invalid user id", err))
			c.Abort()
			return
		}
		user, err := s.users.FindByID(c.Request.Context(), userID)
		if err != nil {
			apperror.Respond(c, apperror.Unauthenticated("unknown user", err))
			c.Abort()
			return
		}
		c.Set(actorKey, service.ActorFromUser(user))
		c.Next()
	}
}

func actorFrom(c *gin.Context) *service.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(*service.Actor); ok {
			return actor
		}
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
