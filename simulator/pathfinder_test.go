package simulator

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridflow/config"
)

func testGridConfig(rows, cols int) *config.GridConfig {
	cfg := config.Default()
	cfg.Grid.Rows = rows
	cfg.Grid.Cols = cols
	return &cfg.Grid
}

// bruteForce 枚举单向网格上的全部下/右路径求最优代价
func bruteForce(n *RoadNetwork, at, dest int64) float64 {
	if at == dest {
		return 0
	}
	best := math.Inf(1)
	for _, next := range n.Successors(at) {
		cost := n.EdgeCost(at, next)
		if math.IsInf(cost, 1) {
			continue
		}
		if sub := bruteForce(n, next, dest); cost+sub < best {
			best = cost + sub
		}
	}
	return best
}

func TestPathfinderMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1))
	n := NewRoadNetwork(testGridConfig(4, 4))
	p := NewPathfinder(n)

	// 随机扰动边代价
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			from := n.NodeID(r, c)
			for _, to := range n.Successors(from) {
				require.NoError(t, n.SetEdgeCost(from, to, 300+rng.Float64()*500))
			}
		}
	}

	for origin := int64(0); origin < 16; origin++ {
		for dest := int64(0); dest < 16; dest++ {
			want := bruteForce(n, origin, dest)
			path, got := p.Dijkstra(origin, dest)
			if math.IsInf(want, 1) {
				assert.Nil(t, path)
				assert.True(t, math.IsInf(got, 1))
				continue
			}
			require.InDelta(t, want, got, 1e-9, "dijkstra %d->%d", origin, dest)
			assert.Equal(t, origin, path[0])
			assert.Equal(t, dest, path[len(path)-1])

			aPath, aCost := p.AStar(origin, dest)
			assert.InDelta(t, want, aCost, 1e-9, "astar %d->%d", origin, dest)
			assert.Equal(t, len(path), len(aPath))
		}
	}
}

func TestPathfinderBlockedEdgeUnreachable(t *testing.T) {
	n := NewRoadNetwork(testGridConfig(2, 1))
	p := NewPathfinder(n)

	path, cost := p.Dijkstra(0, 1)
	require.Equal(t, []int64{0, 1}, path)
	require.InDelta(t, 300, cost, 1e-9)

	require.NoError(t, n.BlockEdge(0, 1))
	path, cost = p.Dijkstra(0, 1)
	assert.Nil(t, path, "blocked edge severs the only route")
	assert.True(t, math.IsInf(cost, 1))

	require.NoError(t, n.UnblockEdge(0, 1))
	path, _ = p.Dijkstra(0, 1)
	assert.Equal(t, []int64{0, 1}, path)
}

func TestPathfinderTrivialAndTieBreak(t *testing.T) {
	n := NewRoadNetwork(testGridConfig(2, 2))
	p := NewPathfinder(n)

	path, cost := p.Dijkstra(3, 3)
	assert.Equal(t, []int64{3}, path)
	assert.Zero(t, cost)

	// 等代价时取先入队的扩展，纵向边先于横向边
	path, _ = p.Dijkstra(0, 3)
	require.Equal(t, []int64{0, 2, 3}, path)
	for i := 0; i < 10; i++ {
		again, _ := p.Dijkstra(0, 3)
		assert.Equal(t, path, again, "repeated planning is deterministic")
	}

	// 逆向不可达：单向网格没有回头边
	path, cost = p.Dijkstra(3, 0)
	assert.Nil(t, path)
	assert.True(t, math.IsInf(cost, 1))
}
