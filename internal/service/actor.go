package service

import (
	"github.com/google/uuid"

	"github.com/example/checkflow/internal/models"
)

// Actor is the authenticated caller of a core operation, resolved from the
// external user directory by the transport layer. A nil *Actor means no
// authenticated context.
type Actor struct {
	ID        uuid.UUID
	Name      string
	Role      models.UserRole
	OfficeIDs []uuid.UUID
}

// ActorFromUser builds the actor view of a directory user.
func ActorFromUser(u *models.User) *Actor {
	return &Actor{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		OfficeIDs: u.OfficeIDs,
	}
}

// AssignedTo reports whether the actor is attached to the given office.
func (a *Actor) AssignedTo(officeID uuid.UUID) bool {
	for _, id := range a.OfficeIDs {
		if id == officeID {
			return true
		}
	}
	return false
}
