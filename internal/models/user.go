package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserRole describes what a user may do across the system.
type UserRole string

const (
	// RoleEmployee is the basic submitter role: prints checklists and uploads scans.
	RoleEmployee UserRole = "employee"
	// RoleManager reviews recognition results for the offices assigned to them.
	RoleManager UserRole = "manager"
	// RoleAdmin manages catalogs and sees every office.
	RoleAdmin UserRole = "admin"
)

// IsReviewer reports whether the role may correct recognition results and
// approve or reject jobs.
func (r UserRole) IsReviewer() bool {
	return r == RoleManager || r == RoleAdmin
}

// User mirrors the external user directory. Only the fields the core needs for
// role scoping are kept; authentication lives outside this service.
type User struct {
	ID        uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string                         `json:"name"`
	Email     string                         `gorm:"uniqueIndex" json:"email"`
	Role      UserRole                       `json:"role"`
	OfficeIDs datatypes.JSONSlice[uuid.UUID] `json:"officeIds"`
	CreatedAt time.Time                      `json:"createdAt"`
	UpdatedAt time.Time                      `json:"updatedAt"`
}

// BeforeCreate is a GORM hook that populates the primary key.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// AssignedTo reports whether the user is attached to the given office.
func (u *User) AssignedTo(officeID uuid.UUID) bool {
	for _, id := range u.OfficeIDs {
		if id == officeID {
			return true
		}
	}
	return false
}
