package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gridflow/simulator"
)

// TripRecorder 记录车辆行程数据
// 完成事件逐条缓存，按间隔批量落盘
type TripRecorder struct {
	mu       sync.Mutex
	filename string
	cache    [][]string
}

var tripHeader = []string{
	"vehicle_id", "type", "completed_tick",
	"travel_ticks", "stopped_ticks", "stops", "distance",
}

// NewTripRecorder 创建行程数据记录器，文件名带会话ID
func NewTripRecorder(dataDir, runID string) (*TripRecorder, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	filename := filepath.Join(dataDir, fmt.Sprintf("trips_%s.csv", runID))
	initializeCSV(filename, tripHeader)
	return &TripRecorder{filename: filename}, nil
}

// Record 缓存一批行程完成事件
func (r *TripRecorder) Record(events []simulator.CompletionEvent) {
	if len(events) == 0 {
		return
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			strconv.FormatInt(e.VehicleID, 10),
			e.Type,
			strconv.Itoa(e.Tick),
			strconv.Itoa(e.TravelTicks),
			strconv.Itoa(e.StoppedTicks),
			strconv.Itoa(e.Stops),
			strconv.FormatFloat(e.Distance, 'f', 2, 64),
		})
	}
	r.mu.Lock()
	r.cache = append(r.cache, rows...)
	r.mu.Unlock()
}

// Flush 将缓存批量写入CSV并清空
func (r *TripRecorder) Flush() {
	r.mu.Lock()
	rows := r.cache
	r.cache = nil
	r.mu.Unlock()
	appendToCSV(r.filename, rows)
}

// Filename 返回数据文件路径
func (r *TripRecorder) Filename() string {
	return r.filename
}
