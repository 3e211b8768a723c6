package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/checkflow/internal/apperror"
	"github.com/example/checkflow/internal/models"
)

// OfficeService exposes the read-mostly office catalog.
type OfficeService struct {
	offices OfficeStore
}

// NewOfficeService builds a service with dependencies.
func NewOfficeService(offices OfficeStore) *OfficeService {
	return &OfficeService{offices: offices}
}

// List returns all offices for any authenticated actor.
func (s *OfficeService) List(ctx context.Context, actor *Actor) ([]models.Office, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	return s.offices.List(ctx)
}

// Get returns one office by id.
func (s *OfficeService) Get(ctx context.Context, actor *Actor, id uuid.UUID) (*models.Office, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	return s.offices.FindByID(ctx, id)
}
