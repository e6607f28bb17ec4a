package types

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure the controller or API client reports
// wraps one of the five classes below, so callers branch with errors.Is.
var (
	ErrUnauthorized  = errors.New("authentication required")
	ErrForbidden     = errors.New("action not permitted")
	ErrStateConflict = errors.New("ride state conflict")
	ErrUnavailable   = errors.New("backend temporarily unavailable")
	ErrValidation    = errors.New("validation failed")
)

var (
	ErrRideNotFound    = errors.New("ride not found")
	ErrNoActiveSession = fmt.Errorf("%w: no active session", ErrUnauthorized)

	// Выдается проигравшему водителю в гонке за заказ. Не является ошибкой
	// для пользователя, поездка просто уже занята.
	ErrRideTaken = fmt.Errorf("%w: ride no longer available", ErrStateConflict)

	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrStateConflict)

	ErrAccountBlocked    = fmt.Errorf("%w: account is blocked", ErrForbidden)
	ErrDriverNotApproved = fmt.Errorf("%w: driver is not approved", ErrForbidden)
	ErrNotAssignedDriver = fmt.Errorf("%w: driver is not assigned to this ride", ErrForbidden)

	// Второй advance по той же поездке отклоняется локально,
	// пока первый запрос в полете.
	ErrAdvanceInFlight = fmt.Errorf("%w: status change already in progress", ErrValidation)

	// Повторная отправка заказа, пока создание еще в полете.
	ErrRequestInFlight = fmt.Errorf("%w: ride request already in progress", ErrValidation)
)
