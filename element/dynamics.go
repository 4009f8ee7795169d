package element

import (
	"math"

	"github.com/samber/lo"
)

// FollowingParams 跟驰模型参数，取值来自配置
type FollowingParams struct {
	DesiredSpeed   float64
	TimeHeadway    float64
	MaxAccel       float64
	ComfortDecel   float64
	MinGap         float64
	GapOffset      float64
	SpeedExponent  float64
	EmergencyDecel float64
	HardStopGap    float64
}

// FreeAccel 计算无前车时的自由流加速度
func FreeAccel(p FollowingParams, v, desired float64) float64 {
	if desired <= 0 {
		return -p.EmergencyDecel
	}
	acc := p.MaxAccel * (1 - math.Pow(v/desired, p.SpeedExponent))
	return lo.Clamp(acc, -p.EmergencyDecel, p.MaxAccel)
}

// FollowAccel 计算IDM跟驰加速度
// gap为与前车的净间距，lv为前车速度
func FollowAccel(p FollowingParams, v, lv, gap, desired float64) float64 {
	if gap <= 0 {
		return -p.EmergencyDecel
	}
	dv := v - lv
	sStar := p.MinGap + math.Max(0, v*p.TimeHeadway+v*dv/(2*math.Sqrt(p.MaxAccel*p.ComfortDecel)))
	acc := p.MaxAccel * (1 - math.Pow(v/desired, p.SpeedExponent) - math.Pow((sStar+p.GapOffset)/(gap+p.GapOffset), 2))
	return lo.Clamp(acc, -p.EmergencyDecel, p.MaxAccel)
}

// StopAccel 计算在给定剩余距离内停稳所需的减速度
// 剩余距离不足一步行程时直接刹停，避免无限趋近目标点的爬行
func StopAccel(p FollowingParams, v, dist float64) float64 {
	if v <= 0 {
		return 0
	}
	if dist <= v {
		return -p.EmergencyDecel
	}
	return math.Max(-v*v/(2*dist), -p.EmergencyDecel)
}

// PlanInput 汇总一次加速度规划所需的感知结果
type PlanInput struct {
	Vehicle    *Vehicle
	LeaderID   int64   // 前车ID，-1表示无前车
	LeaderVel  float64 // 前车速度
	LeaderGap  float64 // 与前车的净间距
	StopDist   float64 // 到必须停车点的距离，math.Inf(1)表示无停车要求
	MustStop   bool    // 是否存在停车要求（红灯、黄灯制动、无预约）
	HardBlock  bool    // 与前车间距低于强制停车阈值
	DesiredVel float64 // 本步期望速度
}

// PlanAcceleration 按固定优先级合成车辆本步加速度
// 优先级自高到低：强制停车、信号停车、跟驰、自由流
func PlanAcceleration(p FollowingParams, in PlanInput) float64 {
	if in.HardBlock {
		return -p.EmergencyDecel
	}

	acc := FreeAccel(p, in.Vehicle.Velocity, in.DesiredVel)
	if in.LeaderID >= 0 {
		acc = math.Min(acc, FollowAccel(p, in.Vehicle.Velocity, in.LeaderVel, in.LeaderGap, in.DesiredVel))
	}
	if in.MustStop {
		acc = math.Min(acc, StopAccel(p, in.Vehicle.Velocity, in.StopDist))
	}
	return acc
}
