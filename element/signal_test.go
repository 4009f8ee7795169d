package element

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController() *SignalController {
	return NewSignalController(180, 60, 240, 60, 600)
}

func TestSignalFixedCycle(t *testing.T) {
	c := newTestController()

	require.Equal(t, Green, c.State(North))
	require.Equal(t, Red, c.State(East))

	for i := 0; i < 179; i++ {
		c.Tick()
	}
	assert.Equal(t, Green, c.State(North), "green should hold for its full dwell")

	c.Tick()
	assert.Equal(t, Amber, c.State(North))

	for i := 0; i < 60; i++ {
		c.Tick()
	}
	assert.Equal(t, Red, c.State(North))
	assert.Equal(t, Red, c.State(East), "all-red transition before handover")

	c.Tick()
	assert.Equal(t, Green, c.State(East))
	assert.Equal(t, East, c.Active())
}

func TestSignalAllRedInterlock(t *testing.T) {
	c := newTestController()

	sawAllRed := false
	prevEast := c.State(East)
	for i := 0; i < 600; i++ {
		c.Tick()
		if c.State(North) == Red && c.State(East) == Red {
			sawAllRed = true
		}
		if prevEast == Red && c.State(East) == Green {
			require.True(t, sawAllRed, "handover must pass through an all-red frame")
		}
		prevEast = c.State(East)
	}
	assert.True(t, sawAllRed)
}

func TestSignalGreenDwellClamped(t *testing.T) {
	c := newTestController()

	c.SetGreenDwell(North, 10000)
	assert.Equal(t, 600, c.GreenDwell(North))

	c.SetGreenDwell(North, 1)
	assert.Equal(t, 60, c.GreenDwell(North))

	c.SetGreenDwell(East, 300)
	assert.Equal(t, 300, c.GreenDwell(East))
}

func TestSignalAdvanceForcesAmber(t *testing.T) {
	c := newTestController()

	c.Tick()
	require.Equal(t, Green, c.State(North))

	c.Advance()
	assert.Equal(t, Amber, c.State(North))

	// 黄灯与红灯下的推进指令无效果
	prior := c.State(North)
	c.Advance()
	assert.Equal(t, prior, c.State(North))
}

// 互斥约束在任意指令序列下都不被破坏
func TestSignalNeverBothGreenFuzz(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	c := newTestController()

	for i := 0; i < 100000; i++ {
		switch rng.IntN(20) {
		case 0:
			c.Advance()
		case 1:
			c.SetGreenDwell(North, rng.IntN(1000))
		case 2:
			c.SetGreenDwell(East, rng.IntN(1000))
		}
		c.Tick()
		require.False(t, c.ConflictingGreens(), "both approaches non-red at tick %d", i)
	}
}
