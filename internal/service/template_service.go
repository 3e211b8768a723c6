package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/checkflow/internal/apperror"
	"github.com/example/checkflow/internal/models"
)

// TemplateService manages the checklist template catalog. Section edits on a
// published template are copy-on-write: they always create a new version and
// move the current pointer, so jobs pinned to older versions never change
// retroactively.
type TemplateService struct {
	templates TemplateStore
}

// NewTemplateService builds a service with dependencies.
func NewTemplateService(templates TemplateStore) *TemplateService {
	return &TemplateService{templates: templates}
}

// List returns the catalog for any authenticated actor.
func (s *TemplateService) List(ctx context.Context, actor *Actor) ([]models.ChecklistTemplate, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	return s.templates.List(ctx)
}

// Get returns one template with all its versions.
func (s *TemplateService) Get(ctx context.Context, actor *Actor, id uuid.UUID) (*models.ChecklistTemplate, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required", nil)
	}
	return s.templates.FindByID(ctx, id)
}

// CreateTemplateInput carries the arguments for Create.
type CreateTemplateInput struct {
	Name        string
	Type        models.ChecklistType
	Description string
	Sections    []models.ChecklistSection
}

// Create adds a draft template with its initial version.
func (s *TemplateService) Create(ctx context.Context, actor *Actor, in CreateTemplateInput) (*models.ChecklistTemplate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, apperror.InvalidInput("template name is required", nil)
	}
	switch in.Type {
	case models.ChecklistTypeOpening, models.ChecklistTypeClosing, models.ChecklistTypeWeekly, models.ChecklistTypeDaily:
	default:
		return nil, apperror.InvalidInput(fmt.Sprintf("unknown checklist type %q", in.Type), nil)
	}
	sections, err := normalizeSections(in.Sections)
	if err != nil {
		return nil, err
	}

	version := models.TemplateVersion{
		ID:            uuid.New(),
		VersionNumber: 1,
		Status:        models.TemplateStatusDraft,
		Sections:      sections,
		CreatedBy:     actor.ID,
	}
	tmpl := &models.ChecklistTemplate{
		ID:               uuid.New(),
		Name:             in.Name,
		Type:             in.Type,
		Description:      in.Description,
		Status:           models.TemplateStatusDraft,
		CurrentVersionID: &version.ID,
		Versions:         []models.TemplateVersion{version},
	}
	if err := s.templates.Create(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// UpdateSections rewrites the section content of a template. On a published
// template this creates a new version (copy-on-write); on a draft it edits
// the current draft version in place.
func (s *TemplateService) UpdateSections(ctx context.Context, actor *Actor, templateID uuid.UUID, sections []models.ChecklistSection) (*models.ChecklistTemplate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	tmpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tmpl.Status == models.TemplateStatusArchived {
		return nil, apperror.InvalidState("archived templates cannot be edited", nil)
	}
	normalized, err := normalizeSections(sections)
	if err != nil {
		return nil, err
	}

	if tmpl.Status == models.TemplateStatusPublished {
		version := &models.TemplateVersion{
			ID:            uuid.New(),
			VersionNumber: tmpl.MaxVersionNumber() + 1,
			Status:        models.TemplateStatusPublished,
			Sections:      normalized,
			CreatedBy:     actor.ID,
		}
		if err := s.templates.AddVersion(ctx, tmpl, version); err != nil {
			return nil, err
		}
		tmpl.Versions = append(tmpl.Versions, *version)
		return tmpl, nil
	}

	current := tmpl.CurrentVersion()
	if current == nil {
		return nil, apperror.Precondition("template has no current version", nil)
	}
	current.Sections = normalized
	if err := s.templates.UpdateVersion(ctx, current); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Publish makes a draft template available for printing.
func (s *TemplateService) Publish(ctx context.Context, actor *Actor, templateID uuid.UUID) (*models.ChecklistTemplate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	tmpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tmpl.Status == models.TemplateStatusPublished {
		return nil, apperror.InvalidState("template is already published", nil)
	}
	current := tmpl.CurrentVersion()
	if current == nil {
		return nil, apperror.Precondition("template has no current version to publish", nil)
	}

	current.Status = models.TemplateStatusPublished
	if err := s.templates.UpdateVersion(ctx, current); err != nil {
		return nil, err
	}
	tmpl.Status = models.TemplateStatusPublished
	if err := s.templates.Update(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Archive retires a template; existing jobs keep their pinned versions.
func (s *TemplateService) Archive(ctx context.Context, actor *Actor, templateID uuid.UUID) (*models.ChecklistTemplate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	tmpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tmpl.Status == models.TemplateStatusArchived {
		return nil, apperror.InvalidState("template is already archived", nil)
	}
	tmpl.Status = models.TemplateStatusArchived
	if err := s.templates.Update(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func requireAdmin(actor *Actor) error {
	if actor == nil {
		return apperror.Unauthenticated("authentication required", nil)
	}
	if actor.Role != models.RoleAdmin {
		return apperror.Unauthorized("only admins may manage templates", nil)
	}
	return nil
}

// normalizeSections assigns ids to new sections and items, renumbers display
// order, and enforces the invariant that item ids are unique within a
// version.
func normalizeSections(sections []models.ChecklistSection) ([]models.ChecklistSection, error) {
	if len(sections) == 0 {
		return nil, apperror.Precondition("a checklist needs at least one section", nil)
	}
	seen := make(map[uuid.UUID]bool)
	out := make([]models.ChecklistSection, 0, len(sections))
	for i, section := range sections {
		if section.Title == "" {
			return nil, apperror.Precondition("section title is required", nil)
		}
		if len(section.Items) == 0 {
			return nil, apperror.Precondition(fmt.Sprintf("section %q needs at least one item", section.Title), nil)
		}
		if section.ID == uuid.Nil {
			section.ID = uuid.New()
		}
		section.Order = i + 1
		items := make([]models.ChecklistItem, 0, len(section.Items))
		for j, item := range section.Items {
			if item.Text == "" {
				return nil, apperror.Precondition(fmt.Sprintf("item text is required in section %q", section.Title), nil)
			}
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			if seen[item.ID] {
				return nil, apperror.Precondition(fmt.Sprintf("duplicate item id %s", item.ID), nil)
			}
			seen[item.ID] = true
			item.Order = j + 1
			items = append(items, item)
		}
		section.Items = items
		out = append(out, section)
	}
	return out, nil
}
