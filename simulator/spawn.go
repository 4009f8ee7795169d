package simulator

import (
	"math"

	"gridflow/element"
)

// sampleType 按归一化占比抽取车辆类型
func (g *Grid) sampleType() element.TypeSpec {
	types := g.cfg.Vehicle.Types
	var sum float64
	for _, t := range types {
		sum += t.Share
	}
	u := g.rng.Float64() * sum
	var acc float64
	for _, t := range types {
		acc += t.Share
		if u < acc {
			return element.TypeSpec{
				Name: t.Name, Length: t.Length, Width: t.Width,
				MaxSpeed: t.MaxSpeed, Priority: t.Priority,
			}
		}
	}
	t := types[len(types)-1]
	return element.TypeSpec{
		Name: t.Name, Length: t.Length, Width: t.Width,
		MaxSpeed: t.MaxSpeed, Priority: t.Priority,
	}
}

// entryProgress 返回给定方向入口点的纵向坐标，位于首个交叉口上游
func (g *Grid) entryProgress(dir element.Direction) float64 {
	if dir == element.North {
		return g.cfg.Grid.OriginY - g.cfg.Grid.Margin
	}
	return g.cfg.Grid.OriginX - g.cfg.Grid.Margin
}

// spawnVehicles 在各入口按生成概率投放车辆
// 纵向车流自每列顶端进入，横向车流自每行左端进入；入口间距不足时本步放弃
func (g *Grid) spawnVehicles() {
	for col := 0; col < g.net.Cols(); col++ {
		g.trySpawn(element.North, col)
	}
	for row := 0; row < g.net.Rows(); row++ {
		g.trySpawn(element.East, row)
	}
}

func (g *Grid) trySpawn(dir element.Direction, road int) {
	if g.rng.Float64() >= g.cfg.Vehicle.SpawnRate {
		return
	}
	if limit := g.cfg.Vehicle.MaxPopulated; limit > 0 && g.arena.Len() >= limit {
		return
	}

	lane := g.rng.IntN(g.cfg.Grid.NumLanes)
	entry := g.entryProgress(dir)

	// 入口间距校验，使用上一步的车道索引
	if l, ok := g.lanes[laneKey{Dir: dir, Road: road, Lane: lane}]; ok {
		if last := l.Last(); last >= 0 {
			u := g.arena.Get(last)
			if u != nil && u.Progress()-u.Spec.Length-entry < g.cfg.Vehicle.MinSpawnGap {
				return
			}
		}
	}

	spec := g.sampleType()
	jitter := g.cfg.Vehicle.SpeedJitter
	maxSpeed := spec.MaxSpeed * (1 + jitter*(2*g.rng.Float64()-1))

	g.nextID++
	var x, y float64
	if dir == element.North {
		x, y = g.laneCenter(dir, road, lane), entry
	} else {
		x, y = entry, g.laneCenter(dir, road, lane)
	}
	v := element.NewVehicle(g.nextID, spec, dir, x, y, maxSpeed)
	v.LaneIndex = lane
	v.Velocity = math.Min(maxSpeed, g.fp.DesiredSpeed)

	// OD抽样与路径规划，不可达时按概率转向模式行驶
	var origin int64
	if dir == element.North {
		origin = g.net.NodeID(0, road)
	} else {
		origin = g.net.NodeID(road, 0)
	}
	dest := g.net.SampleDestination(g.rng, origin)
	v.DestRow, v.DestCol = g.net.NodePos(dest)
	if route, cost := g.pathfinder.AStar(origin, dest); len(route) > 1 && !math.IsInf(cost, 1) {
		v.Route = route
	}

	g.arena.Add(v)
	g.spawned++
}
