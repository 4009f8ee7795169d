package simulator

import (
	"fmt"

	"gridflow/config"
	"gridflow/element"
	"gridflow/log"
)

// IntersectionObservation 单个交叉口对外暴露的观测
type IntersectionObservation struct {
	ID         element.GridID
	Counts     [2]float64 // 各进口检测区车辆数
	Active     element.Direction
	GreenDwell [2]int
}

// Observation 外部决策源每次收到的系统观测快照
type Observation struct {
	Tick          int
	Intersections []IntersectionObservation
}

// Decision 外部决策源返回的控制指令
// Dwells 为各交叉口各进口的绿灯时长，Advance 列出需立即推进相位的交叉口
type Decision struct {
	Dwells  map[element.GridID][2]int
	Advance []element.GridID
}

// DecisionSource 外部决策源
// Decide 可以任意慢，调用发生在独立协程中，绝不阻塞主循环
type DecisionSource interface {
	Decide(obs Observation) (Decision, error)
}

type externalResult struct {
	decision Decision
	err      error
}

// externalHeuristic 外部决策配时
// 请求异步发出、按步轮询；超时或出错时退回密度自适应策略，首个有效决策到达前同样如此
type externalHeuristic struct {
	source      DecisionSource
	fallback    *densityHeuristic
	interval    int
	timeout     int
	pending     chan externalResult
	requestTick int
	useFallback bool
}

func newExternalHeuristic(cfg *config.Config, net *RoadNetwork, source DecisionSource) *externalHeuristic {
	return &externalHeuristic{
		source:      source,
		fallback:    newDensityHeuristic(cfg, net),
		interval:    cfg.Heuristic.ExternalInterval,
		timeout:     cfg.Heuristic.ExternalTimeout,
		useFallback: true,
	}
}

func (h *externalHeuristic) Name() string { return "external" }

func (h *externalHeuristic) Evaluate(in *HeuristicInput) {
	h.poll(in)

	if h.pending == nil && h.interval > 0 && in.Tick%h.interval == 0 {
		h.dispatch(in)
	}

	if h.useFallback {
		h.fallback.Evaluate(in)
	}
}

// poll 非阻塞地收割在途请求的结果或处理超时
func (h *externalHeuristic) poll(in *HeuristicInput) {
	if h.pending == nil {
		return
	}
	select {
	case res := <-h.pending:
		h.pending = nil
		if res.err != nil {
			log.WriteLog(fmt.Sprintf("external decision failed 外部决策失败: %v", res.err))
			h.useFallback = true
			return
		}
		h.apply(in, res.decision)
		h.useFallback = false
	default:
		if in.Tick-h.requestTick >= h.timeout {
			// 超时放弃，协程写入带缓冲通道后自行退出
			log.WriteLog(fmt.Sprintf("external decision timed out 外部决策超时: requested at tick %d", h.requestTick))
			h.pending = nil
			h.useFallback = true
		}
	}
}

// dispatch 摘取观测快照并发起异步请求
func (h *externalHeuristic) dispatch(in *HeuristicInput) {
	obs := Observation{Tick: in.Tick}
	for _, it := range in.Intersections {
		obs.Intersections = append(obs.Intersections, IntersectionObservation{
			ID:     it.ID,
			Counts: in.Counts[it.ID],
			Active: it.Controller.Active(),
			GreenDwell: [2]int{
				it.Controller.GreenDwell(element.North),
				it.Controller.GreenDwell(element.East),
			},
		})
	}

	ch := make(chan externalResult, 1)
	h.pending = ch
	h.requestTick = in.Tick
	src := h.source
	go func() {
		d, err := src.Decide(obs)
		ch <- externalResult{decision: d, err: err}
	}()
}

// apply 施加外部决策，未知交叉口的指令忽略，时长由控制器收拢到上下界
func (h *externalHeuristic) apply(in *HeuristicInput, d Decision) {
	byID := make(map[element.GridID]*element.Intersection, len(in.Intersections))
	for _, it := range in.Intersections {
		byID[it.ID] = it
	}
	for id, dwells := range d.Dwells {
		it, ok := byID[id]
		if !ok {
			continue
		}
		for _, dir := range []element.Direction{element.North, element.East} {
			if dwells[dir] > 0 {
				it.Controller.SetGreenDwell(dir, dwells[dir])
			}
		}
	}
	for _, id := range d.Advance {
		if it, ok := byID[id]; ok {
			it.Controller.Advance()
		}
	}
}
