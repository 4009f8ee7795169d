package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gridflow/simulator"
)

// SystemRecorder 记录系统级时序数据
// 每步采样一行缓存于内存，按间隔批量落盘
type SystemRecorder struct {
	mu       sync.Mutex
	filename string
	cache    [][]string
}

var systemHeader = []string{
	"tick", "population", "spawned", "completed",
	"mean_speed", "reservations", "mean_edge_cost", "blocked_edges",
}

// NewSystemRecorder 创建系统数据记录器，文件名带会话ID
func NewSystemRecorder(dataDir, runID string) (*SystemRecorder, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	filename := filepath.Join(dataDir, fmt.Sprintf("system_%s.csv", runID))
	initializeCSV(filename, systemHeader)
	return &SystemRecorder{filename: filename}, nil
}

// Record 从快照采样一行系统数据
func (r *SystemRecorder) Record(s simulator.Snapshot, spawned, completed int64) {
	var speedSum float64
	for _, v := range s.Vehicles {
		speedSum += v.Velocity
	}
	meanSpeed := 0.0
	if len(s.Vehicles) > 0 {
		meanSpeed = speedSum / float64(len(s.Vehicles))
	}
	var reservations int
	for _, it := range s.Intersections {
		reservations += it.Reservations
	}

	row := []string{
		strconv.Itoa(s.Tick),
		strconv.Itoa(len(s.Vehicles)),
		strconv.FormatInt(spawned, 10),
		strconv.FormatInt(completed, 10),
		strconv.FormatFloat(meanSpeed, 'f', 4, 64),
		strconv.Itoa(reservations),
		strconv.FormatFloat(s.Network.MeanEdgeCost, 'f', 2, 64),
		strconv.Itoa(s.Network.BlockedEdges),
	}

	r.mu.Lock()
	r.cache = append(r.cache, row)
	r.mu.Unlock()
}

// Flush 将缓存批量写入CSV并清空
func (r *SystemRecorder) Flush() {
	r.mu.Lock()
	rows := r.cache
	r.cache = nil
	r.mu.Unlock()
	appendToCSV(r.filename, rows)
}

// Filename 返回数据文件路径
func (r *SystemRecorder) Filename() string {
	return r.filename
}
