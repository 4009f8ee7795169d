package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *ReservationManager {
	m := NewReservationManager(300, 200, 50, 0.5)
	m.SetSignal(North, Green)
	m.SetSignal(East, Green)
	return m
}

func TestReservationRoundTrip(t *testing.T) {
	m := newTestManager()

	req := Reservation{VehicleID: 1, Movement: Movement{North, Straight}, Start: 0, End: 60}
	require.True(t, m.CanRequest(req))
	require.True(t, m.Request(req))
	assert.True(t, m.HasActiveReservation(1))
	assert.Equal(t, 1, m.ActiveCount())

	m.Release(1)
	assert.False(t, m.HasActiveReservation(1))
	assert.Equal(t, 0, m.ActiveCount())

	// 释放后另一辆车的同机动同时间窗请求立即放行
	req.VehicleID = 2
	assert.True(t, m.Request(req))
}

func TestReservationRedDenied(t *testing.T) {
	m := newTestManager()
	m.SetSignal(North, Red)

	req := Reservation{VehicleID: 1, Movement: Movement{North, Straight}, Start: 0, End: 60}
	assert.False(t, m.CanRequest(req))
	assert.False(t, m.Request(req))

	// 对向进口不受影响
	other := Reservation{VehicleID: 2, Movement: Movement{East, Straight}, Start: 0, End: 60}
	assert.True(t, m.Request(other))

	_, denied := m.Stats()
	assert.Equal(t, int64(1), denied)
}

func TestReservationConflictingWindows(t *testing.T) {
	m := newTestManager()

	require.True(t, m.Request(Reservation{VehicleID: 1, Movement: Movement{North, Straight}, Start: 0, End: 60}))

	// 交叉进口直行对直行冲突，时间窗相交则拒绝
	assert.False(t, m.Request(Reservation{VehicleID: 2, Movement: Movement{East, Straight}, Start: 30, End: 90}))

	// 时间窗不相交则放行，半开区间边界恰好衔接
	assert.True(t, m.Request(Reservation{VehicleID: 3, Movement: Movement{East, Straight}, Start: 60, End: 120}))
}

func TestReservationSameApproachAlwaysConflicts(t *testing.T) {
	m := newTestManager()

	require.True(t, m.Request(Reservation{VehicleID: 1, Movement: Movement{North, Straight}, Start: 0, End: 60}))
	assert.False(t, m.Request(Reservation{VehicleID: 2, Movement: Movement{North, Left}, Start: 0, End: 60}))
	assert.False(t, m.Request(Reservation{VehicleID: 3, Movement: Movement{North, Right}, Start: 0, End: 60}))
}

func TestReservationCompatibleMovements(t *testing.T) {
	m := newTestManager()

	// 交叉进口的直行与左转不在冲突表中，可同时放行
	require.True(t, m.Request(Reservation{VehicleID: 1, Movement: Movement{North, Straight}, Start: 0, End: 60}))
	assert.True(t, m.Request(Reservation{VehicleID: 2, Movement: Movement{East, Left}, Start: 0, End: 60}))

	// 左转对右转冲突
	assert.False(t, m.Request(Reservation{VehicleID: 3, Movement: Movement{East, Right}, Start: 0, End: 60}))
}

func TestReservationExpiry(t *testing.T) {
	m := newTestManager()

	require.True(t, m.Request(Reservation{VehicleID: 1, Movement: Movement{North, Straight}, Start: 0, End: 60}))
	m.Tick(30)
	assert.True(t, m.HasActiveReservation(1))

	m.Tick(60)
	assert.False(t, m.HasActiveReservation(1), "reservation should expire at window end")
}

func TestMovementConflictTable(t *testing.T) {
	// 同进口恒冲突
	for _, a := range []Maneuver{Straight, Left, Right} {
		for _, b := range []Maneuver{Straight, Left, Right} {
			assert.True(t, MovementsConflict(Movement{North, a}, Movement{North, b}))
		}
	}

	assert.True(t, MovementsConflict(Movement{North, Straight}, Movement{East, Straight}))
	assert.True(t, MovementsConflict(Movement{North, Left}, Movement{East, Right}))
	assert.True(t, MovementsConflict(Movement{North, Right}, Movement{East, Left}))

	assert.False(t, MovementsConflict(Movement{North, Straight}, Movement{East, Left}))
	assert.False(t, MovementsConflict(Movement{North, Right}, Movement{East, Straight}))
	assert.False(t, MovementsConflict(Movement{North, Left}, Movement{East, Left}))
}
