package ride

import (
	"context"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/models"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/uuid"
)

// Backend is the remote contract the controller drives. Implemented by
// the backendapi adapter; errors come back already mapped onto the
// domain taxonomy.
type Backend interface {
	CreateRide(ctx context.Context, req models.RideRequest) (*models.Ride, error)
	GetRide(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	AvailableRides(ctx context.Context) ([]models.Ride, error)
	AcceptRide(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, to types.RideStatus) (*models.Ride, error)
	SetAvailability(ctx context.Context, online bool) (*models.Availability, error)
}

// SessionSource is the read side of the session store.
type SessionSource interface {
	Current() *models.Session
}
