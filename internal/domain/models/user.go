package models

import (
	"time"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/uuid"
)

type User struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      types.UserRole `json:"role"`
	IsBlocked bool           `json:"is_blocked"`

	// IsApproved заполняется только для водителей,
	// для пассажиров и админов остается nil.
	IsApproved *bool `json:"is_approved,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Approved reports whether the user is a driver cleared to take rides.
func (u *User) Approved() bool {
	return u != nil && u.Role == types.RoleDriver && u.IsApproved != nil && *u.IsApproved
}
