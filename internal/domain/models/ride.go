package models

import (
	"time"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/uuid"
	"github.com/Temutjin2k/ride-hail-client/pkg/validator"
)

// Ride is the locally cached copy of a backend-owned ride.
// Авторитетная копия живет на бэкенде, клиент только кэширует.
type Ride struct {
	ID            uuid.UUID        `json:"id"`
	RiderID       uuid.UUID        `json:"rider_id"`
	DriverID      *uuid.UUID       `json:"driver_id,omitempty"`
	Status        types.RideStatus `json:"status"`
	Pickup        Location         `json:"pickup"`
	Destination   Location         `json:"destination"`
	Fare          float64          `json:"fare"`
	PaymentMethod string           `json:"payment_method"`

	// Временные метки
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// Terminal reports whether the ride reached COMPLETED or CANCELLED.
func (r *Ride) Terminal() bool {
	return r.Status.Terminal()
}

// NewerThan reports whether r reflects a later backend state than other.
// Status rank orders first, updated_at breaks ties. Used to discard
// out-of-order poll responses instead of overwriting confirmed state.
func (r *Ride) NewerThan(other *Ride) bool {
	if other == nil {
		return true
	}
	if r.Status.Rank() != other.Status.Rank() {
		return r.Status.Rank() > other.Status.Rank()
	}
	return r.UpdatedAt.After(other.UpdatedAt)
}

// RideRequest is the rider's local input for a new ride.
// Validated before any network call.
type RideRequest struct {
	Pickup        Location `json:"pickup"`
	Destination   Location `json:"destination"`
	PaymentMethod string   `json:"payment_method"`
}

func (r *RideRequest) Validate(v *validator.Validator) {
	v.Check(r.Pickup.Address != "", "pickup_address", "must be provided")
	v.Check(r.Pickup.Latitude >= -90 && r.Pickup.Latitude <= 90, "pickup_latitude", "must be between -90 and 90")
	v.Check(r.Pickup.Longitude >= -180 && r.Pickup.Longitude <= 180, "pickup_longitude", "must be between -180 and 180")

	v.Check(r.Destination.Address != "", "destination_address", "must be provided")
	v.Check(r.Destination.Latitude >= -90 && r.Destination.Latitude <= 90, "destination_latitude", "must be between -90 and 90")
	v.Check(r.Destination.Longitude >= -180 && r.Destination.Longitude <= 180, "destination_longitude", "must be between -180 and 180")

	v.Check(r.PaymentMethod != "", "payment_method", "must be provided")
	if r.PaymentMethod != "" {
		v.Check(validator.PermittedValue(r.PaymentMethod, "CASH", "CARD"), "payment_method", "must be one of CASH or CARD")
	}
}
