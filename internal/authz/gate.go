package authz

import (
	"slices"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/models"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
)

// Route names the presentation layer renders against.
const (
	RouteLogin   = "/login"
	RouteBlocked = "/blocked"
	RouteRider   = "/rider"
	RouteDriver  = "/driver"
	RouteAdmin   = "/admin"
)

// Verdict is the gate's routing decision for a (session, action) pair.
type Verdict struct {
	Decision types.Decision

	// Target is where to route the actor when the decision is a redirect.
	Target string

	// Next preserves the intended destination across a login redirect.
	Next string
}

func (v Verdict) Allowed() bool {
	return v.Decision == types.DecisionAllow
}

// Authorize decides whether the action may proceed. Pure function of its
// inputs: no side effects, identical inputs always yield the same verdict,
// so nested route guards re-evaluating the same session agree.
//
// Precedence: no session → login; blocked → blocked notice regardless of
// action; wrong role → that role's home; otherwise allow.
//
// Note: an unapproved driver is Allowed here to view their dashboard.
// "Can view" and "can transact" are different levels for the same role;
// transacting is enforced at the ride controller boundary.
func Authorize(sess *models.Session, action types.Action) Verdict {
	if sess == nil || sess.Token == "" {
		return Verdict{
			Decision: types.DecisionRedirectLogin,
			Target:   RouteLogin,
			Next:     routeFor(action),
		}
	}

	if sess.User.IsBlocked {
		return Verdict{
			Decision: types.DecisionRedirectBlocked,
			Target:   RouteBlocked,
		}
	}

	if !slices.Contains(action.Roles(), sess.User.Role) {
		return Verdict{
			Decision: types.DecisionRedirectRoleHome,
			Target:   HomeRoute(sess.User.Role),
		}
	}

	return Verdict{Decision: types.DecisionAllow}
}

// HomeRoute returns the dashboard route for a role.
func HomeRoute(role types.UserRole) string {
	switch role {
	case types.RoleDriver:
		return RouteDriver
	case types.RoleAdmin:
		return RouteAdmin
	default:
		return RouteRider
	}
}

// routeFor maps an action to the view it happens on, so login can return
// the actor where they were headed.
func routeFor(action types.Action) string {
	switch action {
	case types.ActionViewDriverHome, types.ActionAcceptRide, types.ActionAdvanceRide, types.ActionToggleAvailability:
		return RouteDriver
	case types.ActionViewAdminHome:
		return RouteAdmin
	default:
		return RouteRider
	}
}
