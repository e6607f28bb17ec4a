package ride

import (
	"fmt"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/models"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
)

// transitions is the full ride lifecycle graph. Anything not listed here
// is a state conflict, never a silent success.
//
//	REQUESTED -> ACCEPTED | CANCELLED
//	ACCEPTED  -> PICKED_UP | CANCELLED
//	PICKED_UP -> IN_TRANSIT
//	IN_TRANSIT -> COMPLETED
var transitions = map[types.RideStatus][]types.RideStatus{
	types.StatusRequested: {types.StatusAccepted, types.StatusCancelled},
	types.StatusAccepted:  {types.StatusPickedUp, types.StatusCancelled},
	types.StatusPickedUp:  {types.StatusInTransit},
	types.StatusInTransit: {types.StatusCompleted},
}

// CanTransition reports whether the edge from -> to exists in the graph.
func CanTransition(from, to types.RideStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition checks the edge and the actor rules for applying it
// to the given ride. It only inspects local state; the backend remains
// the authority and may still reject the call.
func ValidateTransition(r *models.Ride, to types.RideStatus, actor *models.User) error {
	if r == nil {
		return types.ErrRideNotFound
	}
	if actor == nil {
		return types.ErrNoActiveSession
	}

	if r.Terminal() {
		return fmt.Errorf("%w: ride already %s", types.ErrInvalidTransition, r.Status)
	}
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, r.Status, to)
	}

	switch to {
	case types.StatusAccepted:
		// Принять может только водитель, и только не назначенную поездку
		if actor.Role != types.RoleDriver {
			return types.ErrForbidden
		}
		if r.DriverID != nil {
			return types.ErrRideTaken
		}

	case types.StatusCancelled:
		if r.Status == types.StatusRequested {
			// Открытый запрос отменяет только его пассажир
			if actor.Role != types.RoleRider || r.RiderID != actor.ID {
				return types.ErrForbidden
			}
			return nil
		}
		// После назначения отменить может пассажир или назначенный водитель
		if actor.Role == types.RoleRider && r.RiderID == actor.ID {
			return nil
		}
		if actor.Role == types.RoleDriver && r.DriverID != nil && *r.DriverID == actor.ID {
			return nil
		}
		return types.ErrForbidden

	default:
		// PICKED_UP, IN_TRANSIT, COMPLETED: assigned driver only
		if actor.Role != types.RoleDriver || r.DriverID == nil || *r.DriverID != actor.ID {
			return types.ErrNotAssignedDriver
		}
	}

	return nil
}
