package repository

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/checkflow/internal/apperror"
	"github.com/example/checkflow/internal/models"
)

// TemplateRepository provides persistence access for checklist templates and
// their versions.
type TemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository constructs a repository using the provided gorm DB.
func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindByID returns the template with all versions loaded in version order.
func (r *TemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ChecklistTemplate, error) {
	var tmpl models.ChecklistTemplate
	err := r.db.WithContext(ctx).
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("version_number asc") }).
		First(&tmpl, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("template not found", err)
		}
		return nil, errors.WithStack(err)
	}
	return &tmpl, nil
}

// List returns every template with versions, newest first.
func (r *TemplateRepository) List(ctx context.Context) ([]models.ChecklistTemplate, error) {
	var templates []models.ChecklistTemplate
	err := r.db.WithContext(ctx).
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("version_number asc") }).
		Order("created_at desc").
		Find(&templates).Error
	return templates, errors.WithStack(err)
}

// Create persists a new template together with its initial version.
func (r *TemplateRepository) Create(ctx context.Context, tmpl *models.ChecklistTemplate) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(tmpl).Error)
}

// Update persists template-level fields (name, status, current version
// pointer). Versions are written through AddVersion or UpdateVersion only.
func (r *TemplateRepository) Update(ctx context.Context, tmpl *models.ChecklistTemplate) error {
	return errors.WithStack(r.db.WithContext(ctx).Omit("Versions").Save(tmpl).Error)
}

// AddVersion appends a new version and repoints the template's current
// version at it in one transaction.
func (r *TemplateRepository) AddVersion(ctx context.Context, tmpl *models.ChecklistTemplate, version *models.TemplateVersion) error {
	return errors.WithStack(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version.TemplateID = tmpl.ID
		if err := tx.Create(version).Error; err != nil {
			return err
		}
		tmpl.CurrentVersionID = &version.ID
		return tx.Omit("Versions").Save(tmpl).Error
	}))
}

// UpdateVersion rewrites a version's sections in place. Only draft versions
// of draft templates take this path; published versions are copy-on-write.
func (r *TemplateRepository) UpdateVersion(ctx context.Context, version *models.TemplateVersion) error {
	return errors.WithStack(r.db.WithContext(ctx).Save(version).Error)
}
