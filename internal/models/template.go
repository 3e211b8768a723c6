package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemplateStatus is the lifecycle state of a template or one of its versions.
type TemplateStatus string

const (
	TemplateStatusDraft     TemplateStatus = "draft"
	TemplateStatusPublished TemplateStatus = "published"
	TemplateStatusArchived  TemplateStatus = "archived"
)

// ChecklistType classifies when a checklist is used during the day or week.
type ChecklistType string

const (
	ChecklistTypeOpening ChecklistType = "opening"
	ChecklistTypeClosing ChecklistType = "closing"
	ChecklistTypeWeekly  ChecklistType = "weekly"
	ChecklistTypeDaily   ChecklistType = "daily"
)

// ChecklistItem is a single line on a printed checklist. Item ids join
// recognition results back to the printed form, so they must be unique within
// a version.
type ChecklistItem struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	IsRequired bool      `json:"isRequired"`
	Order      int       `json:"order"`
}

// ChecklistSection groups items under a heading on the printed form.
type ChecklistSection struct {
	ID    uuid.UUID       `json:"id"`
	Title string          `json:"title"`
	Order int             `json:"order"`
	Items []ChecklistItem `json:"items"`
}

// TemplateVersion is an immutable snapshot of a template's sections. Jobs pin
// the version they were printed from, so later edits never touch them.
type TemplateVersion struct {
	ID            uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID    uuid.UUID                             `gorm:"type:uuid;index" json:"templateId"`
	VersionNumber int                                   `json:"versionNumber"`
	Status        TemplateStatus                        `json:"status"`
	Sections      datatypes.JSONSlice[ChecklistSection] `json:"sections"`
	CreatedBy     uuid.UUID                             `gorm:"type:uuid" json:"createdBy"`
	CreatedAt     time.Time                             `json:"createdAt"`
}

// BeforeCreate is a GORM hook that populates the primary key.
func (v *TemplateVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Items flattens the version's sections into a single ordered item list.
func (v *TemplateVersion) Items() []ChecklistItem {
	var items []ChecklistItem
	for _, s := range v.Sections {
		items = append(items, s.Items...)
	}
	return items
}

// HasItem reports whether the given item id belongs to this version.
func (v *TemplateVersion) HasItem(itemID uuid.UUID) bool {
	for _, s := range v.Sections {
		for _, it := range s.Items {
			if it.ID == itemID {
				return true
			}
		}
	}
	return false
}

// ChecklistTemplate is the catalog entry for one checklist definition. At most
// one version is "current" at a time; CurrentVersionID, when set, must point
// into Versions.
type ChecklistTemplate struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string            `json:"name"`
	Type             ChecklistType     `json:"type"`
	Description      string            `json:"description"`
	Status           TemplateStatus    `json:"status"`
	CurrentVersionID *uuid.UUID        `gorm:"type:uuid" json:"currentVersionId"`
	Versions         []TemplateVersion `gorm:"foreignKey:TemplateID" json:"versions"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// BeforeCreate is a GORM hook that populates the primary key.
func (t *ChecklistTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Version returns the version with the given id, or nil.
func (t *ChecklistTemplate) Version(id uuid.UUID) *TemplateVersion {
	for i := range t.Versions {
		if t.Versions[i].ID == id {
			return &t.Versions[i]
		}
	}
	return nil
}

// CurrentVersion resolves CurrentVersionID against Versions, or nil when the
// template has no current version.
func (t *ChecklistTemplate) CurrentVersion() *TemplateVersion {
	if t.CurrentVersionID == nil {
		return nil
	}
	return t.Version(*t.CurrentVersionID)
}

// MaxVersionNumber returns the highest version number present on the template.
func (t *ChecklistTemplate) MaxVersionNumber() int {
	max := 0
	for _, v := range t.Versions {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max
}
