package element

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var carSpec = TypeSpec{Name: "car", Length: 30, Width: 20, MaxSpeed: 3}

func TestVehicleStraightIntegration(t *testing.T) {
	v := NewVehicle(1, carSpec, North, 283, 100, 3)
	v.Velocity = 2
	v.Accel = 0.5

	v.Integrate(1)
	assert.InDelta(t, 2.5, v.Velocity, 1e-9)
	assert.InDelta(t, 102.5, v.Y, 1e-9)
	assert.InDelta(t, 283, v.X, 1e-9, "straight motion keeps lateral position")

	// 速度受个体上限约束
	for i := 0; i < 10; i++ {
		v.Integrate(1)
	}
	assert.InDelta(t, 3, v.Velocity, 1e-9)
}

func TestVehicleLeftTurnArc(t *testing.T) {
	v := NewVehicle(1, carSpec, North, 283, 175, 3)
	v.Velocity = 1
	v.TurnManeuver = Left
	v.Phase = TurnCommitted
	v.BeginTurn(8)

	require.True(t, v.Turning())
	arcLen := 8 * math.Pi / 2
	for i := 0; i < int(arcLen)+2; i++ {
		v.Accel = 0
		v.Integrate(1)
	}

	require.False(t, v.Turning(), "quarter arc should complete")
	assert.Equal(t, East, v.Direction)
	assert.InDelta(t, 283+8, v.X, 1e-9)
	assert.InDelta(t, 175+8, v.Y, 1e-9)
	assert.Equal(t, Straight, v.TurnManeuver)
	assert.False(t, v.CrossedStopLine)
}

func TestVehicleRightTurnArc(t *testing.T) {
	v := NewVehicle(2, carSpec, East, 275, 183, 3)
	v.Velocity = 1
	v.TurnManeuver = Right
	v.Phase = TurnCommitted
	v.BeginTurn(8)

	for i := 0; i < 20; i++ {
		v.Accel = 0
		v.Integrate(1)
	}

	require.False(t, v.Turning())
	assert.Equal(t, North, v.Direction)
	assert.InDelta(t, 275+8, v.X, 1e-9)
	assert.InDelta(t, 183+8, v.Y, 1e-9)
}

func TestVehicleStopCounting(t *testing.T) {
	v := NewVehicle(1, carSpec, North, 283, 100, 3)
	v.Velocity = 1

	v.Integrate(1) // 行驶中
	v.Accel = -2
	v.Integrate(1) // 停下，计一次停车
	v.Accel = 0
	v.Integrate(1) // 持续静止不再计数
	assert.Equal(t, 1, v.Stops)
	assert.Equal(t, 2, v.StoppedTicks)
	assert.Equal(t, 3, v.TravelTicks)

	v.Accel = 1
	v.Integrate(1)
	v.Accel = -5
	v.Integrate(1)
	assert.Equal(t, 2, v.Stops, "each moving-to-stopped transition counts once")
}

func TestArenaInsertionOrder(t *testing.T) {
	a := NewArena()
	for _, id := range []int64{5, 2, 9} {
		a.Add(NewVehicle(id, carSpec, North, 0, 0, 3))
	}

	var seen []int64
	a.ForEach(func(v *Vehicle) { seen = append(seen, v.ID) })
	assert.Equal(t, []int64{5, 2, 9}, seen, "iteration follows insertion order")

	a.Remove(2)
	assert.Nil(t, a.Get(2))
	assert.Equal(t, []int64{5, 9}, a.IDs())
	assert.Equal(t, 2, a.Len())
}

func TestLaneOrdering(t *testing.T) {
	l := NewLane(North, 0, 0)
	l.Insert(3, 50)
	l.Insert(1, 120)
	l.Insert(2, 80)
	l.Sort()

	assert.Equal(t, []int64{3, 2, 1}, l.IDs())
	assert.Equal(t, int64(2), l.Leader(3))
	assert.Equal(t, int64(-1), l.Leader(1))
	assert.Equal(t, int64(2), l.Follower(1))
	assert.Equal(t, int64(-1), l.Follower(3))
	assert.Equal(t, int64(3), l.Last())

	assert.Equal(t, int64(2), l.LeaderAt(60))
	assert.Equal(t, int64(3), l.FollowerAt(60))

	// 换道迁出后邻车关系即时闭合
	l.Remove(2)
	assert.Equal(t, []int64{3, 1}, l.IDs())
	assert.Equal(t, int64(1), l.Leader(3))
	assert.Equal(t, int64(3), l.Follower(1))
	l.Remove(99)
	assert.Equal(t, 2, l.Len(), "removing an absent id is a no-op")
}
