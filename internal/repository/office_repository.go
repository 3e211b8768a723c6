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

// OfficeRepository provides read access to the office catalog.
type OfficeRepository struct {
	db *gorm.DB
}

// NewOfficeRepository constructs a repository using the provided gorm DB.
func NewOfficeRepository(db *gorm.DB) *OfficeRepository {
	return &OfficeRepository{db: db}
}

// FindByID returns the office by id.
func (r *OfficeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Office, error) {
	var office models.Office
	if err := r.db.WithContext(ctx).First(&office, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("office not found", err)
		}
		return nil, errors.WithStack(err)
	}
	return &office, nil
}

// List returns all offices ordered by code.
func (r *OfficeRepository) List(ctx context.Context) ([]models.Office, error) {
	var offices []models.Office
	err := r.db.WithContext(ctx).Order("code asc").Find(&offices).Error
	return offices, errors.WithStack(err)
}
