package models

import (
	"github.com/Temutjin2k/ride-hail-client/pkg/uuid"
)

// Availability отражает текущее состояние водителя.
// Сбрасывается в offline при выходе из аккаунта.
type Availability struct {
	DriverID uuid.UUID `json:"driver_id"`
	IsOnline bool      `json:"is_online"`
}

// RideStatusUpdate is a ride state change pushed over the websocket
// stream. Carries the same snapshot the polling endpoint returns.
type RideStatusUpdate struct {
	Type string `json:"type"` // always "ride_status_update"
	Ride Ride   `json:"ride"`
}
