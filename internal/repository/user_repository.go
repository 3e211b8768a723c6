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

// UserRepository provides read access to the mirrored user directory.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a repository using the provided gorm DB.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns the user by id.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found", err)
		}
		return nil, errors.WithStack(err)
	}
	return &user, nil
}

// List returns all users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("name asc").Find(&users).Error
	return users, errors.WithStack(err)
}
