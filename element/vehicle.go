package element

import (
	"fmt"
	"math"
)

// TurnPhase 表示车辆转向机动所处的阶段
type TurnPhase int

const (
	TurnNone       TurnPhase = iota // 未计划转向
	TurnCommitted                   // 已决定转向，等待进入交叉口
	TurnInProgress                  // 正在沿圆弧转向
)

// TypeSpec 描述车辆类型的物理参数，生成时从配置表拷贝到车辆实例
type TypeSpec struct {
	Name     string
	Length   float64
	Width    float64
	MaxSpeed float64
	Priority int
}

// Vehicle 表示路网中的一辆车
// 所有字段仅在主循环的串行阶段被修改，感知阶段只读
type Vehicle struct {
	ID        int64
	Spec      TypeSpec
	Direction Direction
	LaneIndex int

	X, Y     float64
	Velocity float64
	Accel    float64
	MaxSpeed float64 // 个体期望速度，含随机浮动

	DestRow, DestCol int     // OD目的交叉口
	Route            []int64 // 规划路径上的节点序列

	// 转向状态机
	Phase        TurnPhase
	TurnManeuver Maneuver
	turnCenter   [2]float64
	turnRadius   float64
	turnStart    float64 // 起始角
	turnSweep    float64 // 角度增量方向，+1 或 -1
	turnProgress float64 // [0,1]
	turnTarget   Direction

	CrossedStopLine bool  // 本交叉口停车线是否已越过
	YieldingAmber   bool  // 黄灯下选择制动停车
	PlannedNode     int64 // 已做出转向决策的交叉口节点，-1表示未决策
	Active          bool

	// 行程统计
	TravelTicks  int
	StoppedTicks int
	Stops        int
	Distance     float64
	wasMoving    bool
}

// NewVehicle 创建一辆车并置于给定入口位置
// 参数非法时 panic，车辆构造属于程序内部逻辑而非外部输入
func NewVehicle(id int64, spec TypeSpec, dir Direction, x, y, maxSpeed float64) *Vehicle {
	if spec.Length <= 0 || spec.Width <= 0 {
		panic(fmt.Sprintf("vehicle %d: non-positive dimensions %f x %f", id, spec.Length, spec.Width))
	}
	if maxSpeed <= 0 {
		panic(fmt.Sprintf("vehicle %d: non-positive max speed %f", id, maxSpeed))
	}
	return &Vehicle{
		ID:          id,
		Spec:        spec,
		Direction:   dir,
		X:           x,
		Y:           y,
		MaxSpeed:    maxSpeed,
		PlannedNode: -1,
		Active:      true,
	}
}

// Progress 返回车辆沿当前行进方向的纵向坐标
func (v *Vehicle) Progress() float64 {
	if v.Direction == North {
		return v.Y
	}
	return v.X
}

// LateralPos 返回车辆在当前道路上的横向坐标
func (v *Vehicle) LateralPos() float64 {
	if v.Direction == North {
		return v.X
	}
	return v.Y
}

// BeginTurn 在进入交叉口时启动圆弧转向
// 圆弧为四分之一圆：南向左转绕 (x+r, y) 逆时针，东向右转绕 (x, y+r) 顺时针
func (v *Vehicle) BeginTurn(radius float64) {
	if v.Phase != TurnCommitted {
		panic(fmt.Sprintf("vehicle %d: begin turn in phase %d", v.ID, v.Phase))
	}
	if radius <= 0 {
		panic(fmt.Sprintf("vehicle %d: non-positive turn radius %f", v.ID, radius))
	}
	v.turnRadius = radius
	v.turnProgress = 0
	v.turnTarget = Movement{v.Direction, v.TurnManeuver}.TurnTarget()
	if v.Direction == North {
		// 南向车流左转向东
		v.turnCenter = [2]float64{v.X + radius, v.Y}
		v.turnStart = math.Pi
		v.turnSweep = -1
	} else {
		// 东向车流右转向南
		v.turnCenter = [2]float64{v.X, v.Y + radius}
		v.turnStart = -math.Pi / 2
		v.turnSweep = 1
	}
	v.Phase = TurnInProgress
}

// Integrate 按计划加速度推进一步并更新位置与统计量
// 转向中的车辆沿圆弧推进，弧长进度用速度换算
func (v *Vehicle) Integrate(dt float64) {
	v.Velocity += v.Accel * dt
	if v.Velocity < 0 {
		v.Velocity = 0
	}
	if v.Velocity > v.MaxSpeed {
		v.Velocity = v.MaxSpeed
	}

	step := v.Velocity * dt
	if v.Phase == TurnInProgress {
		arcLen := v.turnRadius * math.Pi / 2
		v.turnProgress += step / arcLen
		if v.turnProgress >= 1 {
			v.finishTurn()
		} else {
			theta := v.turnStart + v.turnSweep*(math.Pi/2)*v.turnProgress
			v.X = v.turnCenter[0] + v.turnRadius*math.Cos(theta)
			v.Y = v.turnCenter[1] + v.turnRadius*math.Sin(theta)
		}
	} else {
		dx, dy := v.Direction.Vector()
		v.X += dx * step
		v.Y += dy * step
	}

	v.Distance += step
	v.TravelTicks++
	if v.Velocity < 1e-9 {
		v.StoppedTicks++
		if v.wasMoving {
			v.Stops++
		}
		v.wasMoving = false
	} else {
		v.wasMoving = true
	}
}

// finishTurn 将车辆对齐到出口道路并切换行进方向
func (v *Vehicle) finishTurn() {
	theta := v.turnStart + v.turnSweep*math.Pi/2
	v.X = v.turnCenter[0] + v.turnRadius*math.Cos(theta)
	v.Y = v.turnCenter[1] + v.turnRadius*math.Sin(theta)
	v.Direction = v.turnTarget
	v.Phase = TurnNone
	v.TurnManeuver = Straight
	v.CrossedStopLine = false
	v.YieldingAmber = false
}

// Turning 返回车辆是否处于圆弧转向中
func (v *Vehicle) Turning() bool {
	return v.Phase == TurnInProgress
}

// Arena 以插入序维护全部在网车辆
// 车辆本体仅存于ID索引的映射中，车道与台账只引用ID
type Arena struct {
	vehicles map[int64]*Vehicle
	order    []int64
}

// NewArena 创建空的车辆集合
func NewArena() *Arena {
	return &Arena{vehicles: make(map[int64]*Vehicle)}
}

// Add 登记一辆新车
func (a *Arena) Add(v *Vehicle) {
	if _, ok := a.vehicles[v.ID]; ok {
		panic(fmt.Sprintf("duplicate vehicle id %d", v.ID))
	}
	a.vehicles[v.ID] = v
	a.order = append(a.order, v.ID)
}

// Get 按ID取车，不存在返回nil
func (a *Arena) Get(id int64) *Vehicle {
	return a.vehicles[id]
}

// Remove 注销一辆车
func (a *Arena) Remove(id int64) {
	if _, ok := a.vehicles[id]; !ok {
		return
	}
	delete(a.vehicles, id)
	for i, vid := range a.order {
		if vid == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// Len 返回在网车辆数
func (a *Arena) Len() int {
	return len(a.vehicles)
}

// ForEach 按插入序遍历车辆，遍历顺序决定了全局处理的确定性
func (a *Arena) ForEach(fn func(*Vehicle)) {
	for _, id := range a.order {
		fn(a.vehicles[id])
	}
}

// IDs 返回插入序的ID快照
func (a *Arena) IDs() []int64 {
	out := make([]int64, len(a.order))
	copy(out, a.order)
	return out
}
