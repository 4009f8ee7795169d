package simulator

import "gridflow/element"

// VehicleState 快照中一辆车的只读视图
type VehicleState struct {
	ID        int64
	Type      string
	Direction element.Direction
	LaneIndex int
	X, Y      float64
	Velocity  float64
	Accel     float64
	Turning   bool
}

// IntersectionState 快照中一个交叉口的只读视图
type IntersectionState struct {
	ID           element.GridID
	North        element.SignalState
	East         element.SignalState
	Active       element.Direction
	Approaches   [2]float64 // 各进口检测区车辆数
	Reservations int
}

// Snapshot 一次完整的系统状态快照
// 所有字段为值拷贝，调用方持有后不受后续推进影响
type Snapshot struct {
	RunID         string
	Tick          int
	Vehicles      []VehicleState
	Intersections []IntersectionState
	Network       NetworkStats
}

// CompletionEvent 车辆完成行程离开路网时产生的事件
type CompletionEvent struct {
	VehicleID    int64
	Type         string
	Tick         int
	TravelTicks  int
	StoppedTicks int
	Stops        int
	Distance     float64
}
