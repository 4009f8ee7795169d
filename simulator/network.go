package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"gridflow/config"
	"gridflow/log"
)

// edgeKey 有向边的端点对
type edgeKey struct {
	From, To int64
}

// roadEdge 一条路段的代价状态
// Current 随拥堵反馈变化，Blocked 表示路段临时封闭
type roadEdge struct {
	Base    float64
	Current float64
	Blocked bool
}

// RoadNetwork 表示单向网格路网
// 节点为交叉口，纵向边自北向南、横向边自西向东，路径规划在其上进行
type RoadNetwork struct {
	g       *simple.DirectedGraph
	rows    int
	cols    int
	spacing float64
	originX float64
	originY float64
	edges   map[edgeKey]*roadEdge
	od      map[int64][]odEntry // 各起点的目的地分布
}

// odEntry OD矩阵中一个目的地及其归一化概率
type odEntry struct {
	Dest int64
	Prob float64
}

// NewRoadNetwork 按网格配置构建路网
// 构建完成后校验连通性并写入环境日志
func NewRoadNetwork(cfg *config.GridConfig) *RoadNetwork {
	if cfg.Rows < 1 || cfg.Cols < 1 {
		panic(fmt.Sprintf("invalid grid dimensions %dx%d", cfg.Rows, cfg.Cols))
	}
	n := &RoadNetwork{
		g:       simple.NewDirectedGraph(),
		rows:    cfg.Rows,
		cols:    cfg.Cols,
		spacing: cfg.Spacing,
		originX: cfg.OriginX,
		originY: cfg.OriginY,
		edges:   make(map[edgeKey]*roadEdge),
		od:      make(map[int64][]odEntry),
	}

	for row := 0; row < cfg.Rows; row++ {
		for col := 0; col < cfg.Cols; col++ {
			n.g.AddNode(simple.Node(n.NodeID(row, col)))
		}
	}
	for row := 0; row < cfg.Rows; row++ {
		for col := 0; col < cfg.Cols; col++ {
			if row+1 < cfg.Rows {
				n.addEdge(n.NodeID(row, col), n.NodeID(row+1, col), cfg.Spacing)
			}
			if col+1 < cfg.Cols {
				n.addEdge(n.NodeID(row, col), n.NodeID(row, col+1), cfg.Spacing)
			}
		}
	}
	n.buildOD()

	comps := topo.ConnectedComponents(graph.Undirect{G: n.g})
	log.WriteLog(fmt.Sprintf("road network built 路网构建完成: %d nodes, %d edges, %d components",
		n.g.Nodes().Len(), len(n.edges), len(comps)))
	return n
}

func (n *RoadNetwork) addEdge(from, to int64, cost float64) {
	n.g.SetEdge(n.g.NewEdge(simple.Node(from), simple.Node(to)))
	n.edges[edgeKey{from, to}] = &roadEdge{Base: cost, Current: cost}
}

// NodeID 返回行列位置对应的节点ID
func (n *RoadNetwork) NodeID(row, col int) int64 {
	return int64(row*n.cols + col)
}

// NodePos 返回节点ID对应的行列位置
func (n *RoadNetwork) NodePos(id int64) (row, col int) {
	return int(id) / n.cols, int(id) % n.cols
}

// NodeXY 返回节点对应交叉口的中心坐标
func (n *RoadNetwork) NodeXY(id int64) (x, y float64) {
	row, col := n.NodePos(id)
	return n.originX + float64(col)*n.spacing, n.originY + float64(row)*n.spacing
}

// Rows 返回交叉口行数
func (n *RoadNetwork) Rows() int { return n.rows }

// Cols 返回交叉口列数
func (n *RoadNetwork) Cols() int { return n.cols }

// buildOD 按距离衰减构建OD矩阵
// 目的地概率正比于 1/(1+0.5*d)，d为曼哈顿格距，自身除外，逐起点归一化
func (n *RoadNetwork) buildOD() {
	for r := 0; r < n.rows; r++ {
		for c := 0; c < n.cols; c++ {
			origin := n.NodeID(r, c)
			var entries []odEntry
			var sum float64
			for dr := 0; dr < n.rows; dr++ {
				for dc := 0; dc < n.cols; dc++ {
					dest := n.NodeID(dr, dc)
					if dest == origin {
						continue
					}
					d := math.Abs(float64(dr-r)) + math.Abs(float64(dc-c))
					w := 1 / (1 + 0.5*d)
					entries = append(entries, odEntry{Dest: dest, Prob: w})
					sum += w
				}
			}
			for i := range entries {
				entries[i].Prob /= sum
			}
			n.od[origin] = entries
		}
	}
}

// SetODProbability 覆盖某一OD对的权重并重新归一化该起点的分布
func (n *RoadNetwork) SetODProbability(origin, dest int64, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("negative OD weight %f for %d->%d", weight, origin, dest)
	}
	entries, ok := n.od[origin]
	if !ok {
		return fmt.Errorf("unknown origin node %d", origin)
	}
	found := false
	for i := range entries {
		if entries[i].Dest == dest {
			entries[i].Prob = weight
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown destination node %d for origin %d", dest, origin)
	}
	var sum float64
	for _, e := range entries {
		sum += e.Prob
	}
	if sum <= 0 {
		return fmt.Errorf("OD weights for origin %d sum to zero", origin)
	}
	for i := range entries {
		entries[i].Prob /= sum
	}
	return nil
}

// ODDistribution 返回某起点的目的地分布快照
func (n *RoadNetwork) ODDistribution(origin int64) []struct {
	Dest int64
	Prob float64
} {
	entries := n.od[origin]
	out := make([]struct {
		Dest int64
		Prob float64
	}, len(entries))
	for i, e := range entries {
		out[i].Dest = e.Dest
		out[i].Prob = e.Prob
	}
	return out
}

// SampleDestination 按OD分布为给定起点抽取目的地
// 单交叉口网格退化为起点自身
func (n *RoadNetwork) SampleDestination(rng *rand.Rand, origin int64) int64 {
	entries := n.od[origin]
	if len(entries) == 0 {
		return origin
	}
	u := rng.Float64()
	var acc float64
	for _, e := range entries {
		acc += e.Prob
		if u < acc {
			return e.Dest
		}
	}
	return entries[len(entries)-1].Dest
}

// EdgeCost 返回一条边的当前代价，封闭或不存在的边返回 +Inf
func (n *RoadNetwork) EdgeCost(from, to int64) float64 {
	e, ok := n.edges[edgeKey{from, to}]
	if !ok || e.Blocked {
		return math.Inf(1)
	}
	return e.Current
}

// SetEdgeCost 更新一条边的当前代价，拥堵反馈调用
func (n *RoadNetwork) SetEdgeCost(from, to int64, cost float64) error {
	e, ok := n.edges[edgeKey{from, to}]
	if !ok {
		return fmt.Errorf("edge %d->%d does not exist", from, to)
	}
	if cost < e.Base {
		cost = e.Base
	}
	e.Current = cost
	return nil
}

// BlockEdge 封闭一条边，规划视其为不可达
func (n *RoadNetwork) BlockEdge(from, to int64) error {
	e, ok := n.edges[edgeKey{from, to}]
	if !ok {
		return fmt.Errorf("edge %d->%d does not exist", from, to)
	}
	e.Blocked = true
	return nil
}

// UnblockEdge 解除一条边的封闭并恢复基准代价
func (n *RoadNetwork) UnblockEdge(from, to int64) error {
	e, ok := n.edges[edgeKey{from, to}]
	if !ok {
		return fmt.Errorf("edge %d->%d does not exist", from, to)
	}
	e.Blocked = false
	e.Current = e.Base
	return nil
}

// Successors 返回一个节点的出边邻居，先纵向后横向，顺序固定
func (n *RoadNetwork) Successors(id int64) []int64 {
	var out []int64
	it := n.g.From(id)
	for it.Next() {
		out = append(out, it.Node().ID())
	}
	// 纵向邻居的节点号更大，降序排列即先纵后横
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

// NetworkStats 路网统计信息
type NetworkStats struct {
	Nodes        int
	Edges        int
	BlockedEdges int
	MeanEdgeCost float64
}

// Stats 汇总路网当前状态
func (n *RoadNetwork) Stats() NetworkStats {
	s := NetworkStats{Nodes: n.rows * n.cols, Edges: len(n.edges)}
	var sum float64
	var open int
	for _, e := range n.edges {
		if e.Blocked {
			s.BlockedEdges++
			continue
		}
		sum += e.Current
		open++
	}
	if open > 0 {
		s.MeanEdgeCost = sum / float64(open)
	}
	return s
}
