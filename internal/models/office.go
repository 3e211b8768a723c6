package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Office is a physical location that prints and scans checklists. The short
// code builds human-readable job identifiers such as CTR-001.
type Office struct {
	ID          uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string                         `json:"name"`
	Code        string                         `gorm:"uniqueIndex;size:8" json:"code"`
	Address     string                         `json:"address"`
	IsActive    bool                           `json:"isActive"`
	ManagerIDs  datatypes.JSONSlice[uuid.UUID] `json:"managerIds"`
	TemplateIDs datatypes.JSONSlice[uuid.UUID] `json:"templateIds"`
	CreatedAt   time.Time                      `json:"createdAt"`
	UpdatedAt   time.Time                      `json:"updatedAt"`
}

// BeforeCreate is a GORM hook that populates the primary key.
func (o *Office) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// EnablesTemplate reports whether the template may be printed at this office.
func (o *Office) EnablesTemplate(templateID uuid.UUID) bool {
	for _, id := range o.TemplateIDs {
		if id == templateID {
			return true
		}
	}
	return false
}
