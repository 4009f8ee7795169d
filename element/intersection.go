package element

import "fmt"

// GridID 标识网格中一个交叉口的行列位置
type GridID struct {
	Row, Col int
}

// String 返回 "row,col" 形式的标识
func (g GridID) String() string {
	return fmt.Sprintf("%d,%d", g.Row, g.Col)
}

// Intersection 表示一个带信号灯与预约管理的交叉口
type Intersection struct {
	ID           GridID
	CenterX      float64
	CenterY      float64
	StreetWidth  float64
	StopOffset   float64
	Controller   *SignalController
	Reservations *ReservationManager
}

// NewIntersection 创建交叉口
func NewIntersection(id GridID, cx, cy, streetWidth, stopOffset float64, ctrl *SignalController, resv *ReservationManager) *Intersection {
	if ctrl == nil || resv == nil {
		panic(fmt.Sprintf("intersection %s: nil controller or reservation manager", id))
	}
	return &Intersection{
		ID:           id,
		CenterX:      cx,
		CenterY:      cy,
		StreetWidth:  streetWidth,
		StopOffset:   stopOffset,
		Controller:   ctrl,
		Reservations: resv,
	}
}

// StopLine 返回给定进口方向的停车线纵向坐标
// 停车线位于交叉口边缘之前 StopOffset 处
func (it *Intersection) StopLine(d Direction) float64 {
	if d == North {
		return it.CenterY - it.StreetWidth/2 - it.StopOffset
	}
	return it.CenterX - it.StreetWidth/2 - it.StopOffset
}

// EntryEdge 返回给定进口方向的交叉口入口边缘坐标
func (it *Intersection) EntryEdge(d Direction) float64 {
	if d == North {
		return it.CenterY - it.StreetWidth/2
	}
	return it.CenterX - it.StreetWidth/2
}

// ExitEdge 返回给定行进方向的交叉口出口边缘坐标
func (it *Intersection) ExitEdge(d Direction) float64 {
	if d == North {
		return it.CenterY + it.StreetWidth/2
	}
	return it.CenterX + it.StreetWidth/2
}

// DistanceToStopLine 返回车辆车头到本口停车线的纵向距离，负值表示已越线
func (it *Intersection) DistanceToStopLine(v *Vehicle) float64 {
	return it.StopLine(v.Direction) - v.Progress()
}

// Inside 判定一个点是否落在交叉口方形范围内
func (it *Intersection) Inside(x, y float64) bool {
	h := it.StreetWidth / 2
	return x >= it.CenterX-h && x <= it.CenterX+h && y >= it.CenterY-h && y <= it.CenterY+h
}

// SyncReservationSignal 将控制器的当前灯色同步给预约管理器
// 每步在控制器推进之后调用一次
func (it *Intersection) SyncReservationSignal() {
	it.Reservations.SetSignal(North, it.Controller.State(North))
	it.Reservations.SetSignal(East, it.Controller.State(East))
}
