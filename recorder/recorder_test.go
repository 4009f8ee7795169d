package recorder

import (
	"encoding/csv"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridflow/simulator"
)

func readCSV(t *testing.T, filename string) [][]string {
	t.Helper()
	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestTripRecorderWritesCompletions(t *testing.T) {
	dir := t.TempDir()
	r, err := NewTripRecorder(dir, "testrun")
	require.NoError(t, err)

	r.Record([]simulator.CompletionEvent{
		{VehicleID: 7, Type: "car", Tick: 120, TravelTicks: 110, StoppedTicks: 12, Stops: 2, Distance: 330.5},
		{VehicleID: 9, Type: "bus", Tick: 150, TravelTicks: 140, StoppedTicks: 30, Stops: 3, Distance: 310},
	})
	r.Record(nil) // 空批次无副作用
	r.Flush()

	rows := readCSV(t, r.Filename())
	require.Len(t, rows, 3)
	assert.Equal(t, tripHeader, rows[0])
	assert.Equal(t, []string{"7", "car", "120", "110", "12", "2", "330.50"}, rows[1])
	assert.Equal(t, "bus", rows[2][1])

	// 冲洗后缓存清空，重复冲洗不重写
	r.Flush()
	assert.Len(t, readCSV(t, r.Filename()), 3)
}

func TestSystemRecorderAggregates(t *testing.T) {
	dir := t.TempDir()
	r, err := NewSystemRecorder(dir, "testrun")
	require.NoError(t, err)

	snap := simulator.Snapshot{
		Tick: 42,
		Vehicles: []simulator.VehicleState{
			{ID: 1, Velocity: 2},
			{ID: 2, Velocity: 4},
		},
		Intersections: []simulator.IntersectionState{
			{Reservations: 1},
			{Reservations: 2},
		},
		Network: simulator.NetworkStats{MeanEdgeCost: 315.5},
	}
	r.Record(snap, 10, 3)
	r.Flush()

	rows := readCSV(t, r.Filename())
	require.Len(t, rows, 2)
	assert.Equal(t, systemHeader, rows[0])
	assert.Equal(t, []string{"42", "2", "10", "3", "3.0000", "3", "315.50", "0"}, rows[1])
}
