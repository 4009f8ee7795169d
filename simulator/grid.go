package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"gridflow/config"
	"gridflow/element"
	"gridflow/log"
	"gridflow/utils"
)

// laneKey 标识一条车道：方向、道路序号（纵向为列、横向为行）、车道序号
type laneKey struct {
	Dir  element.Direction
	Road int
	Lane int
}

// perception 感知阶段为单辆车收集的只读上下文
type perception struct {
	leaderID  int64
	leaderVel float64
	leaderGap float64
	itx       *element.Intersection // 正在接近或穿越的交叉口
	distStop  float64               // 到停车线的距离，负值表示已越线
}

// Grid 表示一次完整的模拟会话
// 所有状态推进发生在 Step 的单一逻辑线程内，工作池只承担只读的感知计算
type Grid struct {
	cfg        *config.Config
	runID      string
	net        *RoadNetwork
	pathfinder *Pathfinder

	intersections []*element.Intersection // 行优先
	lanes         map[laneKey]*element.Lane

	arena  *element.Arena
	nextID int64
	rng    *rand.Rand
	pool   *utils.WorkerPool

	heuristic Heuristic
	counts    map[element.GridID][2]float64 // 上一步感知的进口检测区车辆数
	resvAt    map[int64]*element.Intersection

	fp element.FollowingParams
	lp element.LaneChangeParams

	tick        int
	completions []CompletionEvent
	spawned     int64
	completed   int64
}

// NewGrid 构建模拟会话
// 配置先行校验，external 策略的决策源由调用方传入，其余策略传 nil
func NewGrid(cfg *config.Config, source DecisionSource) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	net := NewRoadNetwork(&cfg.Grid)
	heur, err := NewHeuristic(cfg, net, source)
	if err != nil {
		return nil, err
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	g := &Grid{
		cfg:        cfg,
		runID:      uuid.NewString(),
		net:        net,
		pathfinder: NewPathfinder(net),
		lanes:      make(map[laneKey]*element.Lane),
		arena:      element.NewArena(),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		pool:       utils.NewWorkerPool(0),
		heuristic:  heur,
		counts:     make(map[element.GridID][2]float64),
		resvAt:     make(map[int64]*element.Intersection),
		fp: element.FollowingParams{
			DesiredSpeed:   cfg.Following.DesiredSpeed,
			TimeHeadway:    cfg.Following.TimeHeadway,
			MaxAccel:       cfg.Following.MaxAccel,
			ComfortDecel:   cfg.Following.ComfortDecel,
			MinGap:         cfg.Following.MinGap,
			GapOffset:      cfg.Following.GapOffset,
			SpeedExponent:  cfg.Following.SpeedExponent,
			EmergencyDecel: cfg.Following.EmergencyDecel,
			HardStopGap:    cfg.Following.HardStopGap,
		},
		lp: element.LaneChangeParams{
			GainThreshold:   cfg.LaneChange.GainThreshold,
			Politeness:      cfg.LaneChange.Politeness,
			SafeBrake:       cfg.LaneChange.SafeBrake,
			MinFrontGap:     cfg.LaneChange.MinFrontGap,
			MinRearGap:      cfg.LaneChange.MinRearGap,
			MinTTC:          cfg.LaneChange.MinTTC,
			LateralCorridor: cfg.LaneChange.LateralCorridor,
		},
	}

	for row := 0; row < cfg.Grid.Rows; row++ {
		for col := 0; col < cfg.Grid.Cols; col++ {
			cx, cy := net.NodeXY(net.NodeID(row, col))
			ctrl := element.NewSignalController(
				cfg.Signal.GreenTicks, cfg.Signal.AmberTicks, cfg.Signal.RedTicks,
				cfg.Signal.MinGreenTicks, cfg.Signal.MaxGreenTicks)
			resv := element.NewReservationManager(cx, cy, cfg.Grid.StreetWidth, cfg.Reservation.ZoneMargin)
			g.intersections = append(g.intersections, element.NewIntersection(
				element.GridID{Row: row, Col: col}, cx, cy,
				cfg.Grid.StreetWidth, cfg.Signal.StopLineOffset, ctrl, resv))
		}
	}

	log.WriteLog(fmt.Sprintf("grid session %s ready 会话就绪: %dx%d, heuristic=%s, seed=%d",
		g.runID, cfg.Grid.Rows, cfg.Grid.Cols, heur.Name(), seed))
	return g, nil
}

// RunID 返回本次会话的唯一标识
func (g *Grid) RunID() string { return g.runID }

// Tick 返回已完成的推进步数
func (g *Grid) Tick() int { return g.tick }

// Network 返回底层路网
func (g *Grid) Network() *RoadNetwork { return g.net }

// Heuristic 返回在用的信号策略
func (g *Grid) Heuristic() Heuristic { return g.heuristic }

// Intersections 返回全部交叉口，行优先
func (g *Grid) Intersections() []*element.Intersection { return g.intersections }

// Population 返回在网车辆数
func (g *Grid) Population() int { return g.arena.Len() }

// Counters 返回累计生成与完成数
func (g *Grid) Counters() (spawned, completed int64) { return g.spawned, g.completed }

// Close 释放工作池
func (g *Grid) Close() { g.pool.Stop() }

// Run 连续推进 steps 步，步间检查取消
func (g *Grid) Run(ctx context.Context, steps int) error {
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			log.WriteLog(fmt.Sprintf("run cancelled 运行取消 at tick %d", g.tick))
			return ctx.Err()
		default:
		}
		g.Step()
	}
	return nil
}

// Step 推进一步，各阶段顺序固定：
// 车辆生成、信号与预约推进、策略评估、车道索引重建、感知、决策与积分、清理、拥堵反馈
func (g *Grid) Step() {
	now := float64(g.tick)

	g.spawnVehicles()

	for _, it := range g.intersections {
		it.Controller.Tick()
		it.SyncReservationSignal()
		it.Reservations.Tick(now)
	}

	g.heuristic.Evaluate(&HeuristicInput{
		Tick:          g.tick,
		Intersections: g.intersections,
		Counts:        g.counts,
		Rng:           g.rng,
	})

	g.rebuildLanes()

	ids := g.arena.IDs()
	percepts := make([]perception, len(ids))
	g.pool.ForEach(len(ids), func(i int) {
		percepts[i] = g.perceive(g.arena.Get(ids[i]))
	})

	g.counts = g.measureApproaches(ids, percepts)

	// 决策与加速度规划，串行保证确定性
	for i, id := range ids {
		g.plan(g.arena.Get(id), &percepts[i], now)
	}

	for i, id := range ids {
		g.considerLaneChange(g.arena.Get(id), &percepts[i])
	}

	for i, id := range ids {
		g.integrate(g.arena.Get(id), &percepts[i])
	}

	g.pruneVehicles()

	if interval := g.cfg.Density.EvalInterval; interval > 0 && g.tick%interval == 0 {
		g.updateCongestion()
	}

	g.tick++
}

// laneCenter 返回车道中心的横向坐标
func (g *Grid) laneCenter(dir element.Direction, road, lane int) float64 {
	var roadCoord float64
	if dir == element.North {
		roadCoord = g.cfg.Grid.OriginX + float64(road)*g.cfg.Grid.Spacing
	} else {
		roadCoord = g.cfg.Grid.OriginY + float64(road)*g.cfg.Grid.Spacing
	}
	return roadCoord - g.cfg.Grid.StreetWidth/2 + g.cfg.Grid.LaneWidth*(float64(lane)+0.5)
}

// roadIndexFor 由横向坐标推出车辆所在道路的序号
func (g *Grid) roadIndexFor(v *element.Vehicle) int {
	if v.Direction == element.North {
		return int(math.Round((v.X - g.cfg.Grid.OriginX) / g.cfg.Grid.Spacing))
	}
	return int(math.Round((v.Y - g.cfg.Grid.OriginY) / g.cfg.Grid.Spacing))
}

// setLateral 将车辆横向坐标对齐到given值
func setLateral(v *element.Vehicle, c float64) {
	if v.Direction == element.North {
		v.X = c
	} else {
		v.Y = c
	}
}

// rebuildLanes 重建全部车道索引，转向中的车辆不挂入任何车道
func (g *Grid) rebuildLanes() {
	for _, l := range g.lanes {
		l.Reset()
	}
	g.arena.ForEach(func(v *element.Vehicle) {
		if v.Turning() {
			return
		}
		key := laneKey{Dir: v.Direction, Road: g.roadIndexFor(v), Lane: v.LaneIndex}
		l, ok := g.lanes[key]
		if !ok {
			l = element.NewLane(key.Dir, key.Road, key.Lane)
			g.lanes[key] = l
		}
		l.Insert(v.ID, v.Progress())
	})
	for _, l := range g.lanes {
		l.Sort()
	}
}

// laneOf 返回车辆当前车道，可能为nil（转向中）
func (g *Grid) laneOf(v *element.Vehicle) *element.Lane {
	if v.Turning() {
		return nil
	}
	return g.lanes[laneKey{Dir: v.Direction, Road: g.roadIndexFor(v), Lane: v.LaneIndex}]
}

// perceive 为一辆车收集只读感知上下文，可在工作池中并发执行
func (g *Grid) perceive(v *element.Vehicle) perception {
	per := perception{leaderID: -1, distStop: math.Inf(1)}
	if v.Turning() {
		return per
	}

	if l := g.laneOf(v); l != nil {
		if lid := l.Leader(v.ID); lid >= 0 {
			leader := g.arena.Get(lid)
			per.leaderID = lid
			per.leaderVel = leader.Velocity
			per.leaderGap = leader.Progress() - leader.Spec.Length - v.Progress()
		}
	}

	per.itx = g.upcomingIntersection(v)
	if per.itx != nil {
		per.distStop = per.itx.DistanceToStopLine(v)
	}
	return per
}

// upcomingIntersection 返回车辆正在接近或尚未驶离的交叉口
// 停车线距离超出感知范围时返回nil
func (g *Grid) upcomingIntersection(v *element.Vehicle) *element.Intersection {
	road := g.roadIndexFor(v)
	var rows int
	if v.Direction == element.North {
		rows = g.net.Rows()
	} else {
		rows = g.net.Cols()
	}
	for i := 0; i < rows; i++ {
		var it *element.Intersection
		if v.Direction == element.North {
			it = g.intersectionAt(i, road)
		} else {
			it = g.intersectionAt(road, i)
		}
		if it == nil {
			continue
		}
		if v.Progress() > it.ExitEdge(v.Direction) {
			continue
		}
		if it.DistanceToStopLine(v) > g.cfg.Signal.DetectionDistance {
			return nil
		}
		return it
	}
	return nil
}

func (g *Grid) intersectionAt(row, col int) *element.Intersection {
	if row < 0 || row >= g.net.Rows() || col < 0 || col >= g.net.Cols() {
		return nil
	}
	return g.intersections[row*g.net.Cols()+col]
}

// measureApproaches 统计各交叉口两进口检测区内的车辆数，供策略评估使用
func (g *Grid) measureApproaches(ids []int64, percepts []perception) map[element.GridID][2]float64 {
	out := make(map[element.GridID][2]float64, len(g.intersections))
	for i, id := range ids {
		per := &percepts[i]
		if per.itx == nil || per.distStop < 0 {
			continue
		}
		v := g.arena.Get(id)
		c := out[per.itx.ID]
		c[v.Direction]++
		out[per.itx.ID] = c
	}
	return out
}

// plan 做转向决策、信号与预约裁决并合成本步加速度
func (g *Grid) plan(v *element.Vehicle, per *perception, now float64) {
	desired := math.Min(v.MaxSpeed, g.fp.DesiredSpeed)

	if v.Turning() {
		v.Accel = element.FreeAccel(g.fp, v.Velocity, desired)
		return
	}

	if per.itx != nil && !v.CrossedStopLine && per.distStop >= 0 && per.distStop <= g.cfg.Turning.DecisionZone {
		g.decideTurn(v, per.itx)
	}

	mustStop := false
	if per.itx != nil {
		if per.distStop < 0 {
			v.CrossedStopLine = true
		} else {
			mustStop = g.gateAtSignal(v, per.itx, per.distStop, now)
		}
	}

	// 制动目标收在停车线前一个最小间隙处，离散积分不致越线
	stopDist := math.Max(per.distStop-g.fp.MinGap, 0)

	v.Accel = element.PlanAcceleration(g.fp, element.PlanInput{
		Vehicle:    v,
		LeaderID:   per.leaderID,
		LeaderVel:  per.leaderVel,
		LeaderGap:  per.leaderGap,
		StopDist:   stopDist,
		MustStop:   mustStop,
		HardBlock:  per.leaderID >= 0 && per.leaderGap < g.fp.HardStopGap,
		DesiredVel: desired,
	})
}

// decideTurn 在决策区内确定本交叉口的机动
// 有路径的车辆跟随路径，无路径的按配置概率抽取可行转向
func (g *Grid) decideTurn(v *element.Vehicle, it *element.Intersection) {
	if v.Phase != element.TurnNone {
		return
	}
	node := g.net.NodeID(it.ID.Row, it.ID.Col)
	if v.PlannedNode == node {
		return
	}
	v.PlannedNode = node

	man := element.Straight
	if len(v.Route) > 0 {
		if v.Route[0] == node && len(v.Route) > 1 {
			man = g.maneuverFor(v.Direction, node, v.Route[1])
			v.Route = v.Route[1:]
		} else {
			// 路径已尽或偏离，直行驶出路网
			v.Route = nil
		}
	} else {
		p := g.rng.Float64()
		if v.Direction == element.North && p < g.cfg.Turning.LeftTurnProb {
			man = element.Left
		} else if v.Direction == element.East && p < g.cfg.Turning.RightTurnProb {
			man = element.Right
		}
	}

	if man != element.Straight {
		v.TurnManeuver = man
		v.Phase = element.TurnCommitted
	}
}

// maneuverFor 由路径上相邻两节点推出交叉口机动
func (g *Grid) maneuverFor(dir element.Direction, node, next int64) element.Maneuver {
	r0, c0 := g.net.NodePos(node)
	r1, c1 := g.net.NodePos(next)
	if dir == element.North {
		if c1 > c0 {
			return element.Left
		}
		return element.Straight
	}
	if r1 > r0 {
		return element.Right
	}
	return element.Straight
}

// gateAtSignal 信号与预约裁决，返回是否需要在停车线前停车
// 黄灯按制动舒适性决定通过或让行，让行决定一经做出保持到相位结束
func (g *Grid) gateAtSignal(v *element.Vehicle, it *element.Intersection, dist, now float64) bool {
	switch it.Controller.State(v.Direction) {
	case element.Red:
		return true
	case element.Amber:
		if v.YieldingAmber {
			return true
		}
		switch {
		case dist <= g.cfg.Signal.AmberCommitDist:
			// 太近，通过
		case dist >= g.cfg.Signal.AmberBrakeDist:
			v.YieldingAmber = true
			return true
		case v.Velocity > 0 && v.Velocity*v.Velocity/(2*dist) <= g.fp.ComfortDecel:
			v.YieldingAmber = true
			return true
		}
	case element.Green:
		v.YieldingAmber = false
	}

	if v.Phase == element.TurnCommitted && v.TurnManeuver == element.Left && !g.cfg.Turning.Permissive {
		// 左转需要冲突直行方向处于红灯
		if it.Controller.State(v.Direction.Cross()) != element.Red {
			return true
		}
	}

	if !g.cfg.Reservation.Enabled {
		return false
	}
	if it.Reservations.HasActiveReservation(v.ID) {
		return false
	}
	man := element.Straight
	if v.Phase == element.TurnCommitted {
		man = v.TurnManeuver
	}
	granted := it.Reservations.Request(element.Reservation{
		VehicleID: v.ID,
		Movement:  element.Movement{Approach: v.Direction, Maneuver: man},
		Start:     now,
		End:       now + g.cfg.Reservation.CrossingTime,
		Priority:  v.Spec.Priority,
	})
	if granted {
		g.resvAt[v.ID] = it
		return false
	}
	return true
}

// considerLaneChange 按MOBIL准则评估相邻车道并立即施加换道
// 临近交叉口或已承诺转向的车辆不换道
func (g *Grid) considerLaneChange(v *element.Vehicle, per *perception) {
	if v.Turning() || v.Phase == element.TurnCommitted || v.CrossedStopLine {
		return
	}
	if per.itx != nil && per.distStop <= g.cfg.Turning.DecisionZone {
		return
	}

	road := g.roadIndexFor(v)
	cur := g.laneOf(v)
	if cur == nil {
		return
	}

	for _, target := range []int{v.LaneIndex - 1, v.LaneIndex + 1} {
		if target < 0 || target >= g.cfg.Grid.NumLanes {
			continue
		}
		tl, ok := g.lanes[laneKey{Dir: v.Direction, Road: road, Lane: target}]
		if !ok {
			tl = element.NewLane(v.Direction, road, target)
			g.lanes[laneKey{Dir: v.Direction, Road: road, Lane: target}] = tl
		}

		in := element.LaneChangeInput{
			Vehicle:      v,
			CurLeader:    g.neighborAhead(cur, v),
			NewLeader:    g.neighborAheadAt(tl, v),
			NewFollower:  g.neighborBehindAt(tl, v),
			OldFollower:  g.neighborBehind(cur, v),
			LateralClear: g.corridorClear(tl, v),
			DesiredVel:   math.Min(v.MaxSpeed, g.fp.DesiredSpeed),
		}
		if element.ShouldChangeLane(g.fp, g.lp, in) {
			// 立即迁移车道索引，同一步内后续评估看到的是最新占用
			cur.Remove(v.ID)
			tl.Insert(v.ID, v.Progress())
			tl.Sort()
			v.LaneIndex = target
			setLateral(v, g.laneCenter(v.Direction, road, target))
			return
		}
	}
}

func (g *Grid) neighborAhead(l *element.Lane, v *element.Vehicle) element.Neighbor {
	id := l.Leader(v.ID)
	return g.neighborFrom(id, v, true)
}

func (g *Grid) neighborBehind(l *element.Lane, v *element.Vehicle) element.Neighbor {
	id := l.Follower(v.ID)
	return g.neighborFrom(id, v, false)
}

func (g *Grid) neighborAheadAt(l *element.Lane, v *element.Vehicle) element.Neighbor {
	id := l.LeaderAt(v.Progress())
	return g.neighborFrom(id, v, true)
}

func (g *Grid) neighborBehindAt(l *element.Lane, v *element.Vehicle) element.Neighbor {
	id := l.FollowerAt(v.Progress())
	return g.neighborFrom(id, v, false)
}

func (g *Grid) neighborFrom(id int64, v *element.Vehicle, ahead bool) element.Neighbor {
	if id < 0 || id == v.ID {
		return element.Neighbor{}
	}
	u := g.arena.Get(id)
	if u == nil {
		return element.Neighbor{}
	}
	var gap float64
	if ahead {
		gap = u.Progress() - u.Spec.Length - v.Progress()
	} else {
		gap = v.Progress() - v.Spec.Length - u.Progress()
	}
	return element.Neighbor{Present: true, Vel: u.Velocity, Gap: gap}
}

// corridorClear 判定目标车道在本车侧向通道内无车体纵向重叠
func (g *Grid) corridorClear(l *element.Lane, v *element.Vehicle) bool {
	for _, id := range l.IDs() {
		u := g.arena.Get(id)
		if u == nil || u.ID == v.ID {
			continue
		}
		if math.Abs(u.Progress()-v.Progress()) < (u.Spec.Length+v.Spec.Length)/2 {
			return false
		}
	}
	return true
}

// integrate 推进车辆并处理转向启动、越线与驶离交叉口
func (g *Grid) integrate(v *element.Vehicle, per *perception) {
	wasTurning := v.Turning()
	v.Integrate(1)

	if wasTurning && !v.Turning() {
		// 转向完成，对齐出口车道并释放预约
		road := g.roadIndexFor(v)
		setLateral(v, g.laneCenter(v.Direction, road, v.LaneIndex))
		g.releaseReservation(v.ID)
		return
	}

	if per.itx == nil || v.Turning() {
		return
	}
	if v.Phase == element.TurnCommitted && v.Progress() >= per.itx.EntryEdge(v.Direction) {
		v.BeginTurn(g.cfg.Grid.LaneWidth * (float64(v.LaneIndex) + 0.5))
		return
	}
	if v.CrossedStopLine && v.Progress() > per.itx.ExitEdge(v.Direction) {
		v.CrossedStopLine = false
		v.YieldingAmber = false
		g.releaseReservation(v.ID)
	}
}

func (g *Grid) releaseReservation(id int64) {
	if it, ok := g.resvAt[id]; ok {
		it.Reservations.Release(id)
		delete(g.resvAt, id)
	}
}

// exitBound 返回给定方向的移除边界坐标
func (g *Grid) exitBound(dir element.Direction) float64 {
	if dir == element.North {
		return g.cfg.Grid.OriginY + float64(g.net.Rows()-1)*g.cfg.Grid.Spacing +
			g.cfg.Grid.StreetWidth/2 + g.cfg.Grid.Margin
	}
	return g.cfg.Grid.OriginX + float64(g.net.Cols()-1)*g.cfg.Grid.Spacing +
		g.cfg.Grid.StreetWidth/2 + g.cfg.Grid.Margin
}

// pruneVehicles 移除驶出路网的车辆并产生完成事件
func (g *Grid) pruneVehicles() {
	var gone []int64
	g.arena.ForEach(func(v *element.Vehicle) {
		if v.Turning() {
			return
		}
		if v.Progress() > g.exitBound(v.Direction) {
			gone = append(gone, v.ID)
		}
	})
	for _, id := range gone {
		v := g.arena.Get(id)
		g.completions = append(g.completions, CompletionEvent{
			VehicleID:    v.ID,
			Type:         v.Spec.Name,
			Tick:         g.tick,
			TravelTicks:  v.TravelTicks,
			StoppedTicks: v.StoppedTicks,
			Stops:        v.Stops,
			Distance:     v.Distance,
		})
		g.releaseReservation(id)
		v.Active = false
		g.arena.Remove(id)
		g.completed++
	}
}

// updateCongestion 将路段占用折算为边代价，路径规划据此避开拥堵
// 代价不低于基准，随边上车辆数对通行能力的占比线性上升
func (g *Grid) updateCongestion() {
	occupancy := make(map[edgeKey]int)
	g.arena.ForEach(func(v *element.Vehicle) {
		road := g.roadIndexFor(v)
		p := v.Progress()
		var origin float64
		if v.Direction == element.North {
			origin = g.cfg.Grid.OriginY
		} else {
			origin = g.cfg.Grid.OriginX
		}
		seg := int(math.Floor((p - origin) / g.cfg.Grid.Spacing))
		var from, to int64
		if v.Direction == element.North {
			if seg < 0 || seg+1 >= g.net.Rows() {
				return
			}
			from, to = g.net.NodeID(seg, road), g.net.NodeID(seg+1, road)
		} else {
			if seg < 0 || seg+1 >= g.net.Cols() {
				return
			}
			from, to = g.net.NodeID(road, seg), g.net.NodeID(road, seg+1)
		}
		occupancy[edgeKey{from, to}]++
	})

	var meanLen float64
	for _, t := range g.cfg.Vehicle.Types {
		meanLen += t.Length
	}
	meanLen /= float64(len(g.cfg.Vehicle.Types))
	capacity := g.cfg.Grid.Spacing / (g.fp.MinGap + meanLen) * float64(g.cfg.Grid.NumLanes)
	for k, e := range g.net.edges {
		count := occupancy[k]
		cost := e.Base * (1 + float64(count)/capacity)
		if err := g.net.SetEdgeCost(k.From, k.To, cost); err != nil {
			log.WriteLog(fmt.Sprintf("congestion update failed 拥堵反馈失败: %v", err))
		}
	}
}

// Snapshot 生成当前系统状态的值拷贝
func (g *Grid) Snapshot() Snapshot {
	s := Snapshot{
		RunID:   g.runID,
		Tick:    g.tick,
		Network: g.net.Stats(),
	}
	g.arena.ForEach(func(v *element.Vehicle) {
		s.Vehicles = append(s.Vehicles, VehicleState{
			ID:        v.ID,
			Type:      v.Spec.Name,
			Direction: v.Direction,
			LaneIndex: v.LaneIndex,
			X:         v.X,
			Y:         v.Y,
			Velocity:  v.Velocity,
			Accel:     v.Accel,
			Turning:   v.Turning(),
		})
	})
	for _, it := range g.intersections {
		s.Intersections = append(s.Intersections, IntersectionState{
			ID:           it.ID,
			North:        it.Controller.State(element.North),
			East:         it.Controller.State(element.East),
			Active:       it.Controller.Active(),
			Approaches:   g.counts[it.ID],
			Reservations: it.Reservations.ActiveCount(),
		})
	}
	return s
}

// DrainCompletions 取走并清空积累的完成事件
func (g *Grid) DrainCompletions() []CompletionEvent {
	out := g.completions
	g.completions = nil
	return out
}
