package types

// ClientMode selects which side of the product the process runs as.
type ClientMode string

const (
	RiderMode  ClientMode = "rider"
	DriverMode ClientMode = "driver"
)

// Enum для роли пользователя
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleRider  UserRole = "RIDER"
	RoleDriver UserRole = "DRIVER"
	RoleAdmin  UserRole = "ADMIN"
)

// Enum для статуса поездки. Статус двигается только вперед,
// CANCELLED доступен из REQUESTED и ACCEPTED.
type RideStatus string

const (
	StatusRequested RideStatus = "REQUESTED"
	StatusAccepted  RideStatus = "ACCEPTED"
	StatusPickedUp  RideStatus = "PICKED_UP"
	StatusInTransit RideStatus = "IN_TRANSIT"
	StatusCompleted RideStatus = "COMPLETED"
	StatusCancelled RideStatus = "CANCELLED"
)

func (s RideStatus) String() string {
	return string(s)
}

// Terminal reports whether no further transition is accepted from s.
func (s RideStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Rank returns the position of the status in the forward order.
// Both terminal statuses share the highest rank, so a terminal record
// is never overwritten by a late response reflecting an earlier state.
func (s RideStatus) Rank() int {
	switch s {
	case StatusRequested:
		return 0
	case StatusAccepted:
		return 1
	case StatusPickedUp:
		return 2
	case StatusInTransit:
		return 3
	case StatusCompleted, StatusCancelled:
		return 4
	default:
		return -1
	}
}

// Action перечисляет защищаемые действия клиента.
type Action string

const (
	ActionViewRiderHome  Action = "view_rider_home"
	ActionViewDriverHome Action = "view_driver_home"
	ActionViewAdminHome  Action = "view_admin_home"

	ActionRequestRide        Action = "request_ride"
	ActionCancelRide         Action = "cancel_ride"
	ActionAcceptRide         Action = "accept_ride"
	ActionAdvanceRide        Action = "advance_ride"
	ActionToggleAvailability Action = "toggle_availability"
)

func (a Action) String() string {
	return string(a)
}

// Roles returns which roles may perform the action.
func (a Action) Roles() []UserRole {
	switch a {
	case ActionViewRiderHome, ActionRequestRide:
		return []UserRole{RoleRider}
	case ActionViewDriverHome, ActionAcceptRide, ActionAdvanceRide, ActionToggleAvailability:
		return []UserRole{RoleDriver}
	case ActionViewAdminHome:
		return []UserRole{RoleAdmin}
	case ActionCancelRide:
		// Поездку может отменить и пассажир и назначенный водитель
		return []UserRole{RoleRider, RoleDriver}
	default:
		return nil
	}
}

// Decision is the verdict kind of the authorization gate.
type Decision string

const (
	DecisionAllow            Decision = "ALLOW"
	DecisionRedirectLogin    Decision = "REDIRECT_LOGIN"
	DecisionRedirectBlocked  Decision = "REDIRECT_BLOCKED"
	DecisionRedirectRoleHome Decision = "REDIRECT_ROLE_HOME"
)
