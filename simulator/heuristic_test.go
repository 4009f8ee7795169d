package simulator

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridflow/config"
	"gridflow/element"
)

func testIntersection(row, col int) *element.Intersection {
	cfg := config.Default()
	ctrl := element.NewSignalController(
		cfg.Signal.GreenTicks, cfg.Signal.AmberTicks, cfg.Signal.RedTicks,
		cfg.Signal.MinGreenTicks, cfg.Signal.MaxGreenTicks)
	resv := element.NewReservationManager(300, 200, cfg.Grid.StreetWidth, cfg.Reservation.ZoneMargin)
	return element.NewIntersection(element.GridID{Row: row, Col: col}, 300, 200,
		cfg.Grid.StreetWidth, cfg.Signal.StopLineOffset, ctrl, resv)
}

func heuristicInput(tick int, its []*element.Intersection, counts map[element.GridID][2]float64) *HeuristicInput {
	return &HeuristicInput{
		Tick:          tick,
		Intersections: its,
		Counts:        counts,
		Rng:           rand.New(rand.NewPCG(3, 5)),
	}
}

func TestHeuristicFactory(t *testing.T) {
	cfg := config.Default()
	net := NewRoadNetwork(&cfg.Grid)

	for _, sel := range []string{"fixed", "random", "density", "wave", "manual"} {
		cfg.Heuristic.Selector = sel
		h, err := NewHeuristic(cfg, net, nil)
		require.NoError(t, err)
		assert.Equal(t, sel, h.Name())
	}

	cfg.Heuristic.Selector = "external"
	_, err := NewHeuristic(cfg, net, nil)
	assert.Error(t, err, "external selector needs a decision source")

	cfg.Heuristic.Selector = "sliding"
	_, err = NewHeuristic(cfg, net, nil)
	assert.Error(t, err)
}

func TestDensityHeuristicHighVsLow(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Rows, cfg.Grid.Cols = 1, 1
	net := NewRoadNetwork(&cfg.Grid)
	h := newDensityHeuristic(cfg, net)

	itHigh := testIntersection(0, 0)
	h.Evaluate(heuristicInput(0, []*element.Intersection{itHigh},
		map[element.GridID][2]float64{{Row: 0, Col: 0}: {9, 9}}))

	itLow := testIntersection(0, 0)
	h2 := newDensityHeuristic(cfg, net)
	h2.Evaluate(heuristicInput(0, []*element.Intersection{itLow},
		map[element.GridID][2]float64{{Row: 0, Col: 0}: {1, 1}}))

	// 超过高阈值取高因子，仅受配置上下界收拢
	want := int(float64(cfg.Signal.GreenTicks) * cfg.Density.HighFactor)
	assert.Equal(t, want, itHigh.Controller.GreenDwell(element.North))
	assert.Greater(t,
		itHigh.Controller.GreenDwell(element.North),
		itLow.Controller.GreenDwell(element.North),
		"denser approach holds green strictly longer")

	wantLow := int(float64(cfg.Signal.GreenTicks) * cfg.Density.LowFactor)
	assert.Equal(t, wantLow, itLow.Controller.GreenDwell(element.North))
}

func TestDensityHeuristicEvalInterval(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Rows, cfg.Grid.Cols = 1, 1
	net := NewRoadNetwork(&cfg.Grid)
	h := newDensityHeuristic(cfg, net)

	it := testIntersection(0, 0)
	before := it.Controller.GreenDwell(element.North)
	h.Evaluate(heuristicInput(61, []*element.Intersection{it},
		map[element.GridID][2]float64{{Row: 0, Col: 0}: {9, 9}}))
	assert.Equal(t, before, it.Controller.GreenDwell(element.North), "off-interval ticks are ignored")
}

func TestDensityHeuristicZonePriority(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Rows, cfg.Grid.Cols = 3, 3
	net := NewRoadNetwork(&cfg.Grid)
	h := newDensityHeuristic(cfg, net)

	center := testIntersection(1, 1)
	corner := testIntersection(0, 0)
	counts := map[element.GridID][2]float64{
		{Row: 1, Col: 1}: {9, 9},
		{Row: 0, Col: 0}: {9, 9},
	}
	h.Evaluate(heuristicInput(0, []*element.Intersection{center, corner}, counts))

	assert.Greater(t,
		center.Controller.GreenDwell(element.North),
		corner.Controller.GreenDwell(element.North),
		"central intersections outrank peripheral ones at equal density")
}

func TestDensityHeuristicTrend(t *testing.T) {
	w := &approachWindow{}
	for _, v := range []float64{4, 4, 4, 5, 6, 7} {
		w.push(v, 10)
	}
	assert.Equal(t, 1, w.trend())

	w = &approachWindow{}
	for _, v := range []float64{7, 6, 5, 4, 4, 4} {
		w.push(v, 10)
	}
	assert.Equal(t, -1, w.trend())

	w = &approachWindow{}
	for _, v := range []float64{4, 4, 4} {
		w.push(v, 10)
	}
	assert.Equal(t, 0, w.trend(), "short windows carry no trend")

	// 窗口容量封顶
	w = &approachWindow{}
	for i := 0; i < 25; i++ {
		w.push(float64(i), 10)
	}
	assert.Len(t, w.samples, 10)
}

func TestWaveHeuristicColumnOffsets(t *testing.T) {
	cfg := config.Default()
	h := newWaveHeuristic(cfg)

	its := []*element.Intersection{
		testIntersection(0, 0), testIntersection(0, 1), testIntersection(0, 2),
	}
	onsets := make([][]int, len(its))
	prevGreen := make([]bool, len(its))
	for tick := 0; tick < 900; tick++ {
		for i, it := range its {
			it.Controller.Tick()
			east := it.Controller.State(element.East) == element.Green
			require.False(t, east && it.Controller.State(element.North) == element.Green,
				"绿灯互斥在任意相位差下成立")
			if east && !prevGreen[i] {
				onsets[i] = append(onsets[i], tick)
			}
			prevGreen[i] = east
		}
		h.Evaluate(heuristicInput(tick, its, nil))
	}

	// 首个东向绿灯起点按列号依次推迟一个偏移量
	for c := range its {
		require.NotEmpty(t, onsets[c])
		assert.Equal(t, 240+c*cfg.Heuristic.WaveOffsetTicks, onsets[c][0])
	}
	// 此后各列周期等长，建立的相位差保持不变
	for c := range its {
		require.GreaterOrEqual(t, len(onsets[c]), 2)
		assert.Equal(t, onsets[0][1]-onsets[0][0], onsets[c][1]-onsets[c][0])
	}
}

func TestManualHeuristicAdvancesOnlyOnCommand(t *testing.T) {
	h := NewManualHeuristic()
	it := testIntersection(0, 0)

	for tick := 0; tick < 50; tick++ {
		h.Evaluate(heuristicInput(tick, []*element.Intersection{it}, nil))
		it.Controller.Tick()
	}
	assert.Equal(t, element.Green, it.Controller.State(element.North), "no command, no phase change")

	h.RequestAdvance(element.GridID{Row: 0, Col: 0})
	h.Evaluate(heuristicInput(50, []*element.Intersection{it}, nil))
	assert.Equal(t, element.Amber, it.Controller.State(element.North))

	// 指令一次性消费
	it2 := testIntersection(0, 0)
	h.Evaluate(heuristicInput(51, []*element.Intersection{it2}, nil))
	assert.Equal(t, element.Green, it2.Controller.State(element.North))
}

func TestRandomHeuristicFlipProbabilities(t *testing.T) {
	always := &randomHeuristic{flipProb: 1, interval: 10}
	it := testIntersection(0, 0)
	always.Evaluate(heuristicInput(0, []*element.Intersection{it}, nil))
	assert.Equal(t, element.Amber, it.Controller.State(element.North))

	never := &randomHeuristic{flipProb: 0, interval: 10}
	it2 := testIntersection(0, 0)
	for tick := 0; tick < 100; tick += 10 {
		never.Evaluate(heuristicInput(tick, []*element.Intersection{it2}, nil))
	}
	assert.Equal(t, element.Green, it2.Controller.State(element.North))

	// 非间隔步不评估
	it3 := testIntersection(0, 0)
	always.Evaluate(heuristicInput(7, []*element.Intersection{it3}, nil))
	assert.Equal(t, element.Green, it3.Controller.State(element.North))
}
