package element

import (
	"fmt"
	"math"
)

// MovementsConflict 判定两个机动能否同时使用交叉口
// 同进口的任意两机动冲突；交叉进口间直行对直行、左转对右转、右转对左转冲突
func MovementsConflict(a, b Movement) bool {
	if a.Approach == b.Approach {
		return true
	}
	switch {
	case a.Maneuver == Straight && b.Maneuver == Straight:
		return true
	case a.Maneuver == Left && b.Maneuver == Right:
		return true
	case a.Maneuver == Right && b.Maneuver == Left:
		return true
	}
	return false
}

// ConflictZone 以圆近似一个机动扫过的交叉口区域
type ConflictZone struct {
	X, Y   float64
	Radius float64
}

// Overlaps 判定两圆是否相交
func (z ConflictZone) Overlaps(o ConflictZone) bool {
	dx, dy := z.X-o.X, z.Y-o.Y
	return math.Hypot(dx, dy) < z.Radius+o.Radius
}

// MovementZone 计算给定机动在交叉口内的冲突区
// 圆心取机动轨迹在口内的近似中点，半径为半幅路宽加安全余量
func MovementZone(mv Movement, cx, cy, streetWidth, margin float64) ConflictZone {
	h := streetWidth / 2
	r := h + margin
	x, y := cx, cy
	switch {
	case mv.Approach == North && mv.Maneuver == Left:
		x, y = cx+h/2, cy-h/2
	case mv.Approach == North && mv.Maneuver == Right:
		x, y = cx-h/2, cy-h/2
	case mv.Approach == East && mv.Maneuver == Left:
		x, y = cx-h/2, cy-h/2
	case mv.Approach == East && mv.Maneuver == Right:
		x, y = cx-h/2, cy+h/2
	}
	return ConflictZone{X: x, Y: y, Radius: r}
}

// Reservation 表示一次交叉口通行预约
// 时间窗为半开区间 [Start, End)
type Reservation struct {
	VehicleID int64
	Movement  Movement
	Start     float64
	End       float64
	Priority  int
}

// windowsOverlap 半开区间相交判定
func windowsOverlap(a, b Reservation) bool {
	return a.Start < b.End && b.Start < a.End
}

// ReservationManager 管理单个交叉口的通行预约
// 仅在主循环的串行阶段被访问，不加锁
type ReservationManager struct {
	cx, cy      float64
	streetWidth float64
	margin      float64
	signal      [2]SignalState // 各进口方向当前灯色，由控制器每步同步
	active      []Reservation
	granted     int64 // 累计放行数
	denied      int64 // 累计拒绝数
}

// NewReservationManager 创建交叉口预约管理器
func NewReservationManager(cx, cy, streetWidth, margin float64) *ReservationManager {
	if streetWidth <= 0 {
		panic(fmt.Sprintf("non-positive street width %f", streetWidth))
	}
	m := &ReservationManager{cx: cx, cy: cy, streetWidth: streetWidth, margin: margin}
	m.signal[North] = Green
	m.signal[East] = Red
	return m
}

// SetSignal 同步某进口方向的灯色，红灯进口的请求一律拒绝
func (m *ReservationManager) SetSignal(d Direction, s SignalState) {
	m.signal[d] = s
}

// CanRequest 判定给定机动与时间窗能否获得预约
// 红灯进口直接拒绝；否则要求与所有冲突且时间窗相交的既有预约互斥
func (m *ReservationManager) CanRequest(req Reservation) bool {
	if m.signal[req.Movement.Approach] == Red {
		return false
	}
	zone := MovementZone(req.Movement, m.cx, m.cy, m.streetWidth, m.margin)
	for _, r := range m.active {
		if r.VehicleID == req.VehicleID {
			continue
		}
		if !MovementsConflict(req.Movement, r.Movement) {
			continue
		}
		other := MovementZone(r.Movement, m.cx, m.cy, m.streetWidth, m.margin)
		if zone.Overlaps(other) && windowsOverlap(req, r) {
			return false
		}
	}
	return true
}

// Request 尝试登记预约，返回是否放行
// 同一车辆重复请求时旧预约先被替换
func (m *ReservationManager) Request(req Reservation) bool {
	if req.End <= req.Start {
		panic(fmt.Sprintf("vehicle %d: empty reservation window [%f, %f)", req.VehicleID, req.Start, req.End))
	}
	if !m.CanRequest(req) {
		m.denied++
		return false
	}
	m.Release(req.VehicleID)
	m.active = append(m.active, req)
	m.granted++
	return true
}

// Release 撤销指定车辆的预约，车辆离开冲突区或转向完成时调用
func (m *ReservationManager) Release(vehicleID int64) {
	for i, r := range m.active {
		if r.VehicleID == vehicleID {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

// Tick 清理时间窗已结束的预约
func (m *ReservationManager) Tick(now float64) {
	kept := m.active[:0]
	for _, r := range m.active {
		if r.End > now {
			kept = append(kept, r)
		}
	}
	m.active = kept
}

// HasActiveReservation 返回指定车辆是否持有预约
func (m *ReservationManager) HasActiveReservation(vehicleID int64) bool {
	for _, r := range m.active {
		if r.VehicleID == vehicleID {
			return true
		}
	}
	return false
}

// ActiveCount 返回在册预约数
func (m *ReservationManager) ActiveCount() int {
	return len(m.active)
}

// Stats 返回累计放行与拒绝数
func (m *ReservationManager) Stats() (granted, denied int64) {
	return m.granted, m.denied
}
