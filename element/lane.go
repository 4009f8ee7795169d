package element

import "sort"

// Lane 表示一条道路上某一方向的一条车道
// 仅记录车辆ID，按行进方向纵向坐标升序排列，每步由主循环重建
type Lane struct {
	Direction Direction
	RoadIndex int // 纵向道路的列号或横向道路的行号
	LaneIndex int
	ids       []int64
	progress  map[int64]float64
}

// NewLane 创建空车道
func NewLane(dir Direction, roadIndex, laneIndex int) *Lane {
	return &Lane{
		Direction: dir,
		RoadIndex: roadIndex,
		LaneIndex: laneIndex,
		progress:  make(map[int64]float64),
	}
}

// Reset 清空车道成员，重建索引前调用
func (l *Lane) Reset() {
	l.ids = l.ids[:0]
	clear(l.progress)
}

// Insert 登记一辆车及其纵向坐标
func (l *Lane) Insert(id int64, progress float64) {
	l.ids = append(l.ids, id)
	l.progress[id] = progress
}

// Remove 注销一辆车，换道即时生效时维护源车道索引
func (l *Lane) Remove(id int64) {
	idx := l.indexOf(id)
	if idx < 0 {
		return
	}
	l.ids = append(l.ids[:idx], l.ids[idx+1:]...)
	delete(l.progress, id)
}

// Sort 按纵向坐标升序排序，坐标相同时按ID保证确定性
func (l *Lane) Sort() {
	sort.SliceStable(l.ids, func(i, j int) bool {
		pi, pj := l.progress[l.ids[i]], l.progress[l.ids[j]]
		if pi != pj {
			return pi < pj
		}
		return l.ids[i] < l.ids[j]
	})
}

// Len 返回车道上的车辆数
func (l *Lane) Len() int {
	return len(l.ids)
}

// IDs 返回车道成员ID的有序切片，调用方不得修改
func (l *Lane) IDs() []int64 {
	return l.ids
}

// Leader 返回紧邻前车的ID，无前车返回-1
// 行进方向为坐标增大方向，前车即坐标更大的最近一辆
func (l *Lane) Leader(id int64) int64 {
	idx := l.indexOf(id)
	if idx < 0 || idx+1 >= len(l.ids) {
		return -1
	}
	return l.ids[idx+1]
}

// Follower 返回紧邻后车的ID，无后车返回-1
func (l *Lane) Follower(id int64) int64 {
	idx := l.indexOf(id)
	if idx <= 0 {
		return -1
	}
	return l.ids[idx-1]
}

// LeaderAt 返回坐标严格大于给定值的最近车辆ID，无则返回-1
func (l *Lane) LeaderAt(progress float64) int64 {
	for _, id := range l.ids {
		if l.progress[id] > progress {
			return id
		}
	}
	return -1
}

// FollowerAt 返回坐标不大于给定值的最近车辆ID，无则返回-1
func (l *Lane) FollowerAt(progress float64) int64 {
	for i := len(l.ids) - 1; i >= 0; i-- {
		if l.progress[l.ids[i]] <= progress {
			return l.ids[i]
		}
	}
	return -1
}

// Last 返回坐标最小的车辆ID，生成点间距校验用，空车道返回-1
func (l *Lane) Last() int64 {
	if len(l.ids) == 0 {
		return -1
	}
	return l.ids[0]
}

func (l *Lane) indexOf(id int64) int {
	for i, v := range l.ids {
		if v == id {
			return i
		}
	}
	return -1
}
