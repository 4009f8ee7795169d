package element

import "fmt"

// Direction 表示车流行进方向
// 路网为单向网格：North 表示自北向南行驶的纵向车流，East 表示自西向东行驶的横向车流
type Direction int

const (
	North Direction = iota // 纵向车流，位移向量 (0, +1)
	East                   // 横向车流，位移向量 (+1, 0)
)

// String 返回方向的可读名称
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Vector 返回该方向单位位移向量
func (d Direction) Vector() (dx, dy float64) {
	if d == North {
		return 0, 1
	}
	return 1, 0
}

// Cross 返回与该方向交叉的另一方向
func (d Direction) Cross() Direction {
	if d == North {
		return East
	}
	return North
}

// Maneuver 表示车辆在交叉口的机动类型
type Maneuver int

const (
	Straight Maneuver = iota // 直行
	Left                     // 左转
	Right                    // 右转
)

// String 返回机动类型的可读名称
func (m Maneuver) String() string {
	switch m {
	case Straight:
		return "straight"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("maneuver(%d)", int(m))
	}
}

// Movement 表示交叉口的一个进口机动，是预约与冲突判定的基本单元
// 两个进口方向各有直行、左转、右转，共六种机动
type Movement struct {
	Approach Direction
	Maneuver Maneuver
}

// String 返回机动的可读名称，例如 "north-left"
func (mv Movement) String() string {
	return mv.Approach.String() + "-" + mv.Maneuver.String()
}

// TurnTarget 返回完成该机动后的行进方向
// 本网格中左转与右转都会切换到交叉方向，直行保持原方向
func (mv Movement) TurnTarget() Direction {
	if mv.Maneuver == Straight {
		return mv.Approach
	}
	return mv.Approach.Cross()
}

// AllMovements 枚举交叉口的全部六种机动，顺序固定
var AllMovements = []Movement{
	{North, Straight}, {North, Left}, {North, Right},
	{East, Straight}, {East, Left}, {East, Right},
}
