package ride

import (
	"errors"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/models"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/uuid"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.New()
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestCanTransition_Graph(t *testing.T) {
	valid := []struct {
		from, to types.RideStatus
	}{
		{types.StatusRequested, types.StatusAccepted},
		{types.StatusRequested, types.StatusCancelled},
		{types.StatusAccepted, types.StatusPickedUp},
		{types.StatusAccepted, types.StatusCancelled},
		{types.StatusPickedUp, types.StatusInTransit},
		{types.StatusInTransit, types.StatusCompleted},
	}
	for _, tt := range valid {
		if !CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be valid", tt.from, tt.to)
		}
	}

	invalid := []struct {
		from, to types.RideStatus
	}{
		{types.StatusAccepted, types.StatusInTransit}, // skipping PICKED_UP
		{types.StatusRequested, types.StatusPickedUp},
		{types.StatusPickedUp, types.StatusCancelled},
		{types.StatusInTransit, types.StatusCancelled},
		{types.StatusCompleted, types.StatusCancelled},
		{types.StatusCancelled, types.StatusRequested},
		{types.StatusAccepted, types.StatusRequested}, // no regression
	}
	for _, tt := range invalid {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be invalid", tt.from, tt.to)
		}
	}
}

func TestValidateTransition_TerminalIsFinal(t *testing.T) {
	riderID, driverID := mustUUID(t), mustUUID(t)
	driver := &models.User{ID: driverID, Role: types.RoleDriver}

	for _, status := range []types.RideStatus{types.StatusCompleted, types.StatusCancelled} {
		r := &models.Ride{ID: mustUUID(t), RiderID: riderID, DriverID: &driverID, Status: status}
		err := ValidateTransition(r, types.StatusCancelled, driver)
		if !errors.Is(err, types.ErrStateConflict) {
			t.Errorf("ride in %s: expected state conflict, got %v", status, err)
		}
	}
}

func TestValidateTransition_AcceptRules(t *testing.T) {
	riderID, driverID := mustUUID(t), mustUUID(t)
	rider := &models.User{ID: riderID, Role: types.RoleRider}
	driver := &models.User{ID: driverID, Role: types.RoleDriver}

	open := &models.Ride{ID: mustUUID(t), RiderID: riderID, Status: types.StatusRequested}

	if err := ValidateTransition(open, types.StatusAccepted, driver); err != nil {
		t.Fatalf("driver accepting open ride: unexpected %v", err)
	}
	if err := ValidateTransition(open, types.StatusAccepted, rider); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("rider accepting: expected forbidden, got %v", err)
	}

	// Уже назначенную поездку принять нельзя
	other := mustUUID(t)
	taken := &models.Ride{ID: mustUUID(t), RiderID: riderID, DriverID: &other, Status: types.StatusRequested}
	if err := ValidateTransition(taken, types.StatusAccepted, driver); !errors.Is(err, types.ErrRideTaken) {
		t.Fatalf("accepting assigned ride: expected ErrRideTaken, got %v", err)
	}
}

func TestValidateTransition_CancelRules(t *testing.T) {
	riderID, driverID, strangerID := mustUUID(t), mustUUID(t), mustUUID(t)
	rider := &models.User{ID: riderID, Role: types.RoleRider}
	driver := &models.User{ID: driverID, Role: types.RoleDriver}
	strangerDriver := &models.User{ID: strangerID, Role: types.RoleDriver}

	open := &models.Ride{ID: mustUUID(t), RiderID: riderID, Status: types.StatusRequested}
	if err := ValidateTransition(open, types.StatusCancelled, rider); err != nil {
		t.Fatalf("rider cancelling own open ride: unexpected %v", err)
	}
	if err := ValidateTransition(open, types.StatusCancelled, driver); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("driver cancelling open ride: expected forbidden, got %v", err)
	}

	accepted := &models.Ride{ID: mustUUID(t), RiderID: riderID, DriverID: &driverID, Status: types.StatusAccepted}
	if err := ValidateTransition(accepted, types.StatusCancelled, rider); err != nil {
		t.Fatalf("rider cancelling accepted ride: unexpected %v", err)
	}
	if err := ValidateTransition(accepted, types.StatusCancelled, driver); err != nil {
		t.Fatalf("assigned driver cancelling: unexpected %v", err)
	}
	if err := ValidateTransition(accepted, types.StatusCancelled, strangerDriver); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("unassigned driver cancelling: expected forbidden, got %v", err)
	}
}

func TestValidateTransition_AssignedDriverOnly(t *testing.T) {
	riderID, driverID, strangerID := mustUUID(t), mustUUID(t), mustUUID(t)
	driver := &models.User{ID: driverID, Role: types.RoleDriver}
	stranger := &models.User{ID: strangerID, Role: types.RoleDriver}
	rider := &models.User{ID: riderID, Role: types.RoleRider}

	accepted := &models.Ride{ID: mustUUID(t), RiderID: riderID, DriverID: &driverID, Status: types.StatusAccepted}

	if err := ValidateTransition(accepted, types.StatusPickedUp, driver); err != nil {
		t.Fatalf("assigned driver advancing: unexpected %v", err)
	}
	if err := ValidateTransition(accepted, types.StatusPickedUp, stranger); !errors.Is(err, types.ErrNotAssignedDriver) {
		t.Fatalf("stranger advancing: expected ErrNotAssignedDriver, got %v", err)
	}
	if err := ValidateTransition(accepted, types.StatusPickedUp, rider); !errors.Is(err, types.ErrNotAssignedDriver) {
		t.Fatalf("rider advancing: expected ErrNotAssignedDriver, got %v", err)
	}
}

func TestRide_NewerThan(t *testing.T) {
	id := uuid.UUID{1}
	base := time.Now()

	older := &models.Ride{ID: id, Status: types.StatusAccepted, UpdatedAt: base}
	newer := &models.Ride{ID: id, Status: types.StatusPickedUp, UpdatedAt: base.Add(-time.Minute)}

	// Ранг статуса важнее метки времени
	if !newer.NewerThan(older) {
		t.Fatal("higher status rank must win regardless of timestamps")
	}
	if older.NewerThan(newer) {
		t.Fatal("lower status rank must lose")
	}

	// При равном ранге решает updated_at
	sameRankLater := &models.Ride{ID: id, Status: types.StatusAccepted, UpdatedAt: base.Add(time.Second)}
	if !sameRankLater.NewerThan(older) {
		t.Fatal("later updated_at must win at equal rank")
	}
}
