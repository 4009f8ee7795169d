package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"

	"gridflow/config"
	"gridflow/element"
)

// HeuristicInput 汇总一次信号策略评估可见的系统状态
// Counts 为各交叉口两个进口检测区内的车辆数，感知阶段统计
type HeuristicInput struct {
	Tick          int
	Intersections []*element.Intersection
	Counts        map[element.GridID][2]float64
	Rng           *rand.Rand
}

// Heuristic 信号控制策略
// Evaluate 由主循环按配置间隔调用，只通过控制器接口施加影响
type Heuristic interface {
	Name() string
	Evaluate(in *HeuristicInput)
}

// NewHeuristic 按选择器构造信号控制策略
// external 选择器需要外部决策源，缺失时报错
func NewHeuristic(cfg *config.Config, net *RoadNetwork, source DecisionSource) (Heuristic, error) {
	switch cfg.Heuristic.Selector {
	case "fixed":
		return &fixedHeuristic{}, nil
	case "random":
		return &randomHeuristic{
			flipProb: cfg.Heuristic.RandomFlipProb,
			interval: cfg.Heuristic.RandomInterval,
		}, nil
	case "density":
		return newDensityHeuristic(cfg, net), nil
	case "wave":
		return newWaveHeuristic(cfg), nil
	case "manual":
		return NewManualHeuristic(), nil
	case "external":
		if source == nil {
			return nil, fmt.Errorf("external heuristic requires a decision source")
		}
		return newExternalHeuristic(cfg, net, source), nil
	default:
		return nil, fmt.Errorf("unknown heuristic selector %q", cfg.Heuristic.Selector)
	}
}

// fixedHeuristic 固定配时：信号灯按配置时长自行循环，策略不干预
type fixedHeuristic struct{}

func (h *fixedHeuristic) Name() string               { return "fixed" }
func (h *fixedHeuristic) Evaluate(_ *HeuristicInput) {}

// randomHeuristic 随机配时：每个评估间隔按概率推进各交叉口相位
// 推进经由控制器的相位指令完成，互斥约束不受随机性影响
type randomHeuristic struct {
	flipProb float64
	interval int
}

func (h *randomHeuristic) Name() string { return "random" }

func (h *randomHeuristic) Evaluate(in *HeuristicInput) {
	if h.interval > 0 && in.Tick%h.interval != 0 {
		return
	}
	for _, it := range in.Intersections {
		if in.Rng.Float64() < h.flipProb {
			it.Controller.Advance()
		}
	}
}

// approachWindow 单个进口的密度滚动窗口
type approachWindow struct {
	samples []float64
}

func (w *approachWindow) push(v float64, cap int) {
	w.samples = append(w.samples, v)
	if len(w.samples) > cap {
		w.samples = w.samples[len(w.samples)-cap:]
	}
}

func (w *approachWindow) mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	return stat.Mean(w.samples, nil)
}

// trend 比较最近三样本与其前三样本的均值
// 样本不足六个时返回0，上升返回+1，下降返回-1
func (w *approachWindow) trend() int {
	n := len(w.samples)
	if n < 6 {
		return 0
	}
	recent := stat.Mean(w.samples[n-3:], nil)
	prior := stat.Mean(w.samples[n-6:n-3], nil)
	switch {
	case recent > prior:
		return 1
	case recent < prior:
		return -1
	default:
		return 0
	}
}

// densityHeuristic 密度自适应配时
// 按检测区密度调整各进口绿灯时长，中心区交叉口享有更高优先权重
type densityHeuristic struct {
	dcfg      config.DensityConfig
	baseGreen int
	centerRow float64
	centerCol float64
	windows   map[element.GridID]*[2]approachWindow
}

func newDensityHeuristic(cfg *config.Config, net *RoadNetwork) *densityHeuristic {
	return &densityHeuristic{
		dcfg:      cfg.Density,
		baseGreen: cfg.Signal.GreenTicks,
		centerRow: float64(net.Rows()-1) / 2,
		centerCol: float64(net.Cols()-1) / 2,
		windows:   make(map[element.GridID]*[2]approachWindow),
	}
}

func (h *densityHeuristic) Name() string { return "density" }

func (h *densityHeuristic) Evaluate(in *HeuristicInput) {
	if h.dcfg.EvalInterval > 0 && in.Tick%h.dcfg.EvalInterval != 0 {
		return
	}
	for _, it := range in.Intersections {
		ws, ok := h.windows[it.ID]
		if !ok {
			ws = &[2]approachWindow{}
			h.windows[it.ID] = ws
		}
		counts := in.Counts[it.ID]
		for _, d := range []element.Direction{element.North, element.East} {
			w := &ws[d]
			w.push(counts[d], h.dcfg.WindowSize)
			it.Controller.SetGreenDwell(d, h.dwellFor(it.ID, w))
		}
	}
}

// dwellFor 由窗口均值、趋势与区位权重合成绿灯时长
func (h *densityHeuristic) dwellFor(id element.GridID, w *approachWindow) int {
	mean := w.mean()
	factor := 1.0
	switch {
	case mean > h.dcfg.HighThreshold:
		factor = h.dcfg.HighFactor
	case mean < h.dcfg.LowThreshold:
		factor = h.dcfg.LowFactor
	}

	switch w.trend() {
	case 1:
		factor *= 1 + h.dcfg.TrendFactor
	case -1:
		factor *= 1 - h.dcfg.TrendFactor
	}

	dist := math.Abs(float64(id.Row)-h.centerRow) + math.Abs(float64(id.Col)-h.centerCol)
	priority := 1 / (1 + h.dcfg.ZoneDecay*dist)

	// 控制器侧再按配置上下界收拢
	return int(math.Round(float64(h.baseGreen) * factor * priority))
}

// waveHeuristic 绿波配时：沿东向干道给相邻列施加固定相位差
// 只在启动阶段把各列第一个北向绿灯延长 col*offset 步，之后恢复基准时长
// 各交叉口周期等长，建立的相位差会一直保持，车流沿列序依次遇到绿灯
type waveHeuristic struct {
	offset    int
	baseGreen int
	primed    bool
	restored  map[element.GridID]bool
}

func newWaveHeuristic(cfg *config.Config) *waveHeuristic {
	return &waveHeuristic{
		offset:    cfg.Heuristic.WaveOffsetTicks,
		baseGreen: cfg.Signal.GreenTicks,
		restored:  make(map[element.GridID]bool),
	}
}

func (h *waveHeuristic) Name() string { return "wave" }

func (h *waveHeuristic) Evaluate(in *HeuristicInput) {
	if !h.primed {
		for _, it := range in.Intersections {
			it.Controller.SetGreenDwell(element.North, h.baseGreen+it.ID.Col*h.offset)
		}
		h.primed = true
		return
	}
	for _, it := range in.Intersections {
		if h.restored[it.ID] {
			continue
		}
		// 延长后的首个绿灯结束后立刻复位，下个周期起时长一致
		if in.Tick >= h.baseGreen+it.ID.Col*h.offset {
			it.Controller.SetGreenDwell(element.North, h.baseGreen)
			h.restored[it.ID] = true
		}
	}
}

// ManualHeuristic 手动配时：仅在收到外部推进指令的交叉口上推进相位
type ManualHeuristic struct {
	pending map[element.GridID]int
}

// NewManualHeuristic 创建手动策略
func NewManualHeuristic() *ManualHeuristic {
	return &ManualHeuristic{pending: make(map[element.GridID]int)}
}

func (h *ManualHeuristic) Name() string { return "manual" }

// RequestAdvance 登记一条相位推进指令，下次评估时生效
func (h *ManualHeuristic) RequestAdvance(id element.GridID) {
	h.pending[id]++
}

func (h *ManualHeuristic) Evaluate(in *HeuristicInput) {
	for _, it := range in.Intersections {
		if h.pending[it.ID] > 0 {
			it.Controller.Advance()
			delete(h.pending, it.ID)
		}
	}
}
