package element

import "math"

// LaneChangeParams 换道模型参数，取值来自配置
type LaneChangeParams struct {
	GainThreshold   float64
	Politeness      float64
	SafeBrake       float64
	MinFrontGap     float64
	MinRearGap      float64
	MinTTC          float64
	LateralCorridor float64
}

// Neighbor 描述目标或当前车道上的一辆相邻车
type Neighbor struct {
	Present bool
	Vel     float64
	Gap     float64 // 净间距，前车为前向间距，后车为后向间距
}

// LaneChangeInput 汇总换道判定所需的感知结果
type LaneChangeInput struct {
	Vehicle      *Vehicle
	CurLeader    Neighbor // 当前车道前车
	NewLeader    Neighbor // 目标车道前车
	NewFollower  Neighbor // 目标车道后车
	OldFollower  Neighbor // 当前车道后车
	LateralClear bool     // 目标侧通道内无车体重叠
	DesiredVel   float64
}

// changeSafe 执行换道前的安全校验
// 最小前后间距、与目标车道相邻车的碰撞时间下限、侧向通道均需满足
func changeSafe(p LaneChangeParams, in LaneChangeInput) bool {
	if !in.LateralClear {
		return false
	}
	if in.NewLeader.Present {
		if in.NewLeader.Gap < p.MinFrontGap {
			return false
		}
		if dv := in.Vehicle.Velocity - in.NewLeader.Vel; dv > 0 && in.NewLeader.Gap/dv < p.MinTTC {
			return false
		}
	}
	if in.NewFollower.Present {
		if in.NewFollower.Gap < p.MinRearGap {
			return false
		}
		if dv := in.NewFollower.Vel - in.Vehicle.Velocity; dv > 0 && in.NewFollower.Gap/dv < p.MinTTC {
			return false
		}
	}
	return true
}

// accelWith 在给定前车条件下求本车的IDM加速度
func accelWith(fp FollowingParams, v, desired float64, leader Neighbor) float64 {
	if !leader.Present {
		return FreeAccel(fp, v, desired)
	}
	return FollowAccel(fp, v, leader.Vel, leader.Gap, desired)
}

// ShouldChangeLane 按MOBIL准则判定是否换道
// 自身加速度收益扣除礼让加权的邻车损失后需超过阈值，且新后车制动不得超过安全上限
func ShouldChangeLane(fp FollowingParams, p LaneChangeParams, in LaneChangeInput) bool {
	if !changeSafe(p, in) {
		return false
	}

	v := in.Vehicle.Velocity
	accCur := accelWith(fp, v, in.DesiredVel, in.CurLeader)
	accNew := accelWith(fp, v, in.DesiredVel, in.NewLeader)

	// 新后车在本车切入后的加速度
	var newFollowerLoss, newFollowerAfter float64
	if in.NewFollower.Present {
		before := accelWith(fp, in.NewFollower.Vel, fp.DesiredSpeed, in.NewLeader)
		gapAfter := in.NewFollower.Gap
		newFollowerAfter = FollowAccel(fp, in.NewFollower.Vel, v, gapAfter, fp.DesiredSpeed)
		newFollowerLoss = before - newFollowerAfter
	}

	// 旧后车因本车离开而得益
	var oldFollowerGain float64
	if in.OldFollower.Present {
		before := FollowAccel(fp, in.OldFollower.Vel, fp.DesiredSpeed, v, in.OldFollower.Gap)
		after := accelWith(fp, in.OldFollower.Vel, fp.DesiredSpeed, in.CurLeader)
		oldFollowerGain = after - before
	}

	if in.NewFollower.Present && newFollowerAfter < p.SafeBrake {
		return false
	}

	gain := accNew - accCur + p.Politeness*(oldFollowerGain-newFollowerLoss)
	return gain > p.GainThreshold && !math.IsNaN(gain)
}
