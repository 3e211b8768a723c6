package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/checkflow/internal/models"
)

// JobStore is the persistence contract the job service needs. The gorm
// implementation lives in internal/repository; tests substitute an in-memory
// one.
type JobStore interface {
	// CreateWithSequence persists a new job and assigns its office-scoped
	// short id atomically with respect to concurrent creates in the same
	// office.
	CreateWithSequence(ctx context.Context, job *models.PrintJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PrintJob, error)
	// UpdateWithEvent persists the modified job together with exactly one
	// appended history event.
	UpdateWithEvent(ctx context.Context, job *models.PrintJob, event *models.HistoryEvent) error
	List(ctx context.Context, f models.JobFilter) ([]models.PrintJob, error)
}

// TemplateStore is the persistence contract for the template catalog.
type TemplateStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ChecklistTemplate, error)
	List(ctx context.Context) ([]models.ChecklistTemplate, error)
	Create(ctx context.Context, tmpl *models.ChecklistTemplate) error
	Update(ctx context.Context, tmpl *models.ChecklistTemplate) error
	AddVersion(ctx context.Context, tmpl *models.ChecklistTemplate, version *models.TemplateVersion) error
	UpdateVersion(ctx context.Context, version *models.TemplateVersion) error
}

// OfficeStore is the persistence contract for the office catalog.
type OfficeStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Office, error)
	List(ctx context.Context) ([]models.Office, error)
}

// RecognitionQueue hands a job over to the asynchronous recognition pipeline.
// Enqueue must not block; it reports whether the job was accepted.
type RecognitionQueue interface {
	Enqueue(jobID uuid.UUID) bool
}
