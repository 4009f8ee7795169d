package simulator

import (
	"container/heap"
	"math"
)

// pqItem 优先队列元素
// seq 为入队序号，优先级相同时先入队者先出队，保证规划结果确定
type pqItem struct {
	node int64
	prio float64
	seq  int
}

type pqueue struct {
	items []pqItem
}

func (q *pqueue) Len() int { return len(q.items) }

func (q *pqueue) Less(i, j int) bool {
	if q.items[i].prio != q.items[j].prio {
		return q.items[i].prio < q.items[j].prio
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *pqueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *pqueue) Push(x any) { q.items = append(q.items, x.(pqItem)) }

func (q *pqueue) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	q.items = old[:n-1]
	return it
}

// Pathfinder 在路网上做最短路规划
// 封闭的边视为不可达，不可达时返回空路径
type Pathfinder struct {
	net *RoadNetwork
}

// NewPathfinder 创建路径规划器
func NewPathfinder(net *RoadNetwork) *Pathfinder {
	return &Pathfinder{net: net}
}

// Dijkstra 求 origin 到 dest 的最小代价路径
// 返回节点序列（含两端）与总代价，不可达返回 (nil, +Inf)
func (p *Pathfinder) Dijkstra(origin, dest int64) ([]int64, float64) {
	return p.search(origin, dest, func(int64) float64 { return 0 })
}

// AStar 以欧氏距离为启发求 origin 到 dest 的最小代价路径
// 网格边代价不低于直线距离，启发函数可采纳，结果与 Dijkstra 一致
func (p *Pathfinder) AStar(origin, dest int64) ([]int64, float64) {
	dx, dy := p.net.NodeXY(dest)
	return p.search(origin, dest, func(id int64) float64 {
		x, y := p.net.NodeXY(id)
		return math.Hypot(dx-x, dy-y)
	})
}

func (p *Pathfinder) search(origin, dest int64, h func(int64) float64) ([]int64, float64) {
	if origin == dest {
		return []int64{origin}, 0
	}

	dist := map[int64]float64{origin: 0}
	prev := make(map[int64]int64)
	done := make(map[int64]bool)

	q := &pqueue{}
	seq := 0
	heap.Push(q, pqItem{node: origin, prio: h(origin), seq: seq})

	for q.Len() > 0 {
		it := heap.Pop(q).(pqItem)
		if done[it.node] {
			continue
		}
		done[it.node] = true
		if it.node == dest {
			break
		}
		for _, next := range p.net.Successors(it.node) {
			cost := p.net.EdgeCost(it.node, next)
			if math.IsInf(cost, 1) {
				continue
			}
			nd := dist[it.node] + cost
			if old, ok := dist[next]; !ok || nd < old {
				dist[next] = nd
				prev[next] = it.node
				seq++
				heap.Push(q, pqItem{node: next, prio: nd + h(next), seq: seq})
			}
		}
	}

	if !done[dest] {
		return nil, math.Inf(1)
	}

	var path []int64
	for at := dest; ; {
		path = append(path, at)
		if at == origin {
			break
		}
		at = prev[at]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, dist[dest]
}
