package element

import (
	"fmt"

	"github.com/samber/lo"
)

// SignalState 表示信号灯的灯色
type SignalState int

const (
	Green SignalState = iota
	Amber
	Red
)

// String 返回灯色的可读名称
func (s SignalState) String() string {
	switch s {
	case Green:
		return "green"
	case Amber:
		return "amber"
	case Red:
		return "red"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// TrafficSignal 表示单个进口方向的信号灯
// 绿灯到期自动转黄，黄灯到期自动转红；红灯只能由控制器放行，灯体自身不回绿
type TrafficSignal struct {
	state        SignalState
	ticksInState int
	greenDwell   int
	amberDwell   int
}

// NewTrafficSignal 创建信号灯，初始灯色由调用方指定
func NewTrafficSignal(initial SignalState, greenDwell, amberDwell int) *TrafficSignal {
	if greenDwell <= 0 || amberDwell <= 0 {
		panic(fmt.Sprintf("non-positive signal dwell %d/%d", greenDwell, amberDwell))
	}
	return &TrafficSignal{state: initial, greenDwell: greenDwell, amberDwell: amberDwell}
}

// State 返回当前灯色
func (t *TrafficSignal) State() SignalState {
	return t.state
}

// GreenDwell 返回当前绿灯时长
func (t *TrafficSignal) GreenDwell() int {
	return t.greenDwell
}

// setGreenDwell 更新绿灯时长，下一个绿灯周期生效
func (t *TrafficSignal) setGreenDwell(d int) {
	if d <= 0 {
		panic(fmt.Sprintf("non-positive green dwell %d", d))
	}
	t.greenDwell = d
}

// tick 推进一步并返回是否在本步转入红灯
func (t *TrafficSignal) tick() bool {
	t.ticksInState++
	switch t.state {
	case Green:
		if t.ticksInState >= t.greenDwell {
			t.state = Amber
			t.ticksInState = 0
		}
	case Amber:
		if t.ticksInState >= t.amberDwell {
			t.state = Red
			t.ticksInState = 0
			return true
		}
	}
	return false
}

// forceAmber 强制绿灯立即转黄，相位推进指令使用
func (t *TrafficSignal) forceAmber() {
	if t.state == Green {
		t.state = Amber
		t.ticksInState = 0
	}
}

// release 红灯放行转绿，仅控制器调用
func (t *TrafficSignal) release() {
	if t.state != Red {
		panic(fmt.Sprintf("release signal in state %s", t.state))
	}
	t.state = Green
	t.ticksInState = 0
}

// SignalController 成对管理一个交叉口两个进口方向的信号灯
// 两灯互斥：任意时刻至多一个非红；相位切换前强制插入至少一帧全红过渡，
// 且待放行进口的红灯时长不短于配置的最短红灯
type SignalController struct {
	signals   [2]*TrafficSignal // 下标即 Direction
	active    Direction
	switching bool // 全红过渡中
	minRed    int
	minGreen  int
	maxGreen  int
}

// NewSignalController 创建控制器，North进口先行放绿
func NewSignalController(greenDwell, amberDwell, redDwell, minGreen, maxGreen int) *SignalController {
	if minGreen <= 0 || maxGreen < minGreen {
		panic(fmt.Sprintf("invalid green dwell bounds [%d, %d]", minGreen, maxGreen))
	}
	if redDwell <= 0 {
		panic(fmt.Sprintf("non-positive red dwell %d", redDwell))
	}
	c := &SignalController{
		active:   North,
		minRed:   redDwell,
		minGreen: minGreen,
		maxGreen: maxGreen,
	}
	c.signals[North] = NewTrafficSignal(Green, greenDwell, amberDwell)
	c.signals[East] = NewTrafficSignal(Red, greenDwell, amberDwell)
	return c
}

// State 返回给定进口方向的灯色
func (c *SignalController) State(d Direction) SignalState {
	return c.signals[d].State()
}

// Active 返回当前持有通行权的进口方向
func (c *SignalController) Active() Direction {
	return c.active
}

// GreenDwell 返回给定进口方向的绿灯时长
func (c *SignalController) GreenDwell(d Direction) int {
	return c.signals[d].GreenDwell()
}

// SetGreenDwell 设置给定进口的绿灯时长，越界值收拢到配置上下界
func (c *SignalController) SetGreenDwell(d Direction, ticks int) {
	c.signals[d].setGreenDwell(lo.Clamp(ticks, c.minGreen, c.maxGreen))
}

// Tick 推进一步
// 活动进口转红后进入全红过渡，待对向红灯满足最短时长后放行
func (c *SignalController) Tick() {
	other := c.active.Cross()
	c.signals[other].tick()

	if c.switching {
		if c.signals[other].State() == Red && c.signals[other].ticksInState >= c.minRed {
			c.active = other
			c.signals[other].release()
			c.switching = false
		}
		return
	}

	if c.signals[c.active].tick() {
		c.switching = true
	}
}

// Advance 立即推进相位：活动绿灯强制转黄，其余状态不受影响
// 黄灯与全红过渡仍按正常时序走完，互斥约束不因外部指令被绕过
func (c *SignalController) Advance() {
	c.signals[c.active].forceAmber()
}

// ConflictingGreens 返回两灯是否同时非红，正常运行中恒为false
func (c *SignalController) ConflictingGreens() bool {
	return c.signals[North].State() != Red && c.signals[East].State() != Red
}
