package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config 保存所有配置项的顶级结构
// 配置由外部加载器装载一次，之后以句柄形式传递给各组件，不使用全局单例
type Config struct {
	Simulation  SimulationConfig  `json:"simulation"`
	Grid        GridConfig        `json:"grid"`
	Vehicle     VehicleConfig     `json:"vehicle"`
	Following   FollowingConfig   `json:"following"`
	LaneChange  LaneChangeConfig  `json:"laneChange"`
	Turning     TurningConfig     `json:"turning"`
	Signal      SignalConfig      `json:"signal"`
	Density     DensityConfig     `json:"density"`
	Reservation ReservationConfig `json:"reservation"`
	Heuristic   HeuristicConfig   `json:"heuristic"`
	Logging     LoggingConfig     `json:"logging"`
}

// SimulationConfig 保存模拟相关的配置项
type SimulationConfig struct {
	TimeSteps      int    `json:"timeSteps"`      // 模拟总步数
	StepsPerSecond int    `json:"stepsPerSecond"` // 每模拟秒包含的步数
	Seed           uint64 `json:"seed"`           // 随机种子，0表示随机
}

// GridConfig 保存路网网格相关的配置项
type GridConfig struct {
	Rows        int     `json:"rows"`        // 交叉口行数
	Cols        int     `json:"cols"`        // 交叉口列数
	Spacing     float64 `json:"spacing"`     // 相邻交叉口间距
	OriginX     float64 `json:"originX"`     // 网格左上角交叉口X坐标
	OriginY     float64 `json:"originY"`     // 网格左上角交叉口Y坐标
	StreetWidth float64 `json:"streetWidth"` // 道路总宽度
	LaneWidth   float64 `json:"laneWidth"`   // 单条车道宽度
	NumLanes    int     `json:"numLanes"`    // 每个方向的车道数
	Margin      float64 `json:"margin"`      // 车辆离开网格边界多远后移除
}

// VehicleTypeConfig 定义一种车辆类型的物理与运动学参数
type VehicleTypeConfig struct {
	Name     string  `json:"name"`
	Length   float64 `json:"length"`
	Width    float64 `json:"width"`
	MaxSpeed float64 `json:"maxSpeed"` // 该类型的期望速度上限
	Share    float64 `json:"share"`    // 生成占比，所有类型之和归一化
	Priority int     `json:"priority"` // 预约优先级：0普通 1公交 2应急
}

// VehicleConfig 保存车辆生成相关的配置项
type VehicleConfig struct {
	SpawnRate    float64             `json:"spawnRate"`    // 每入口每步生成概率
	MinSpawnGap  float64             `json:"minSpawnGap"`  // 生成点处与既有车辆的最小间距
	SpeedJitter  float64             `json:"speedJitter"`  // 个体最高速度的随机浮动比例
	Types        []VehicleTypeConfig `json:"types"`        // 车辆类型表
	MaxPopulated int                 `json:"maxPopulated"` // 在网车辆数上限，0表示不限
}

// FollowingConfig 保存跟驰模型(IDM)的配置项
type FollowingConfig struct {
	DesiredSpeed   float64 `json:"desiredSpeed"`   // 自由流期望速度
	TimeHeadway    float64 `json:"timeHeadway"`    // 期望车头时距（步）
	MaxAccel       float64 `json:"maxAccel"`       // 最大加速度
	ComfortDecel   float64 `json:"comfortDecel"`   // 舒适减速度（正值）
	MinGap         float64 `json:"minGap"`         // 静止最小间隙
	GapOffset      float64 `json:"gapOffset"`      // IDM间隙偏置项 s1
	SpeedExponent  float64 `json:"speedExponent"`  // 自由流指数 delta
	EmergencyDecel float64 `json:"emergencyDecel"` // 紧急减速度上限（正值）
	HardStopGap    float64 `json:"hardStopGap"`    // 低于该间距强制完全停车
}

// LaneChangeConfig 保存换道模型(MOBIL)的配置项
type LaneChangeConfig struct {
	GainThreshold   float64 `json:"gainThreshold"`   // 自身加速度收益阈值
	Politeness      float64 `json:"politeness"`      // 礼让因子 p
	SafeBrake       float64 `json:"safeBrake"`       // 新后车可接受的最大减速（负值下限）
	MinFrontGap     float64 `json:"minFrontGap"`     // 目标车道最小前向间距
	MinRearGap      float64 `json:"minRearGap"`      // 目标车道最小后向间距
	MinTTC          float64 `json:"minTTC"`          // 碰撞时间下限（步）
	LateralCorridor float64 `json:"lateralCorridor"` // 侧向通道判定宽度
}

// TurningConfig 保存转向机动相关的配置项
type TurningConfig struct {
	DecisionZone  float64 `json:"decisionZone"`  // 停车线前的转向决策区长度
	LeftTurnProb  float64 `json:"leftTurnProb"`  // 南向车流左转概率
	RightTurnProb float64 `json:"rightTurnProb"` // 东向车流右转概率
	Permissive    bool    `json:"permissive"`    // 允许冲突直行方向非红灯时转向
}

// SignalConfig 保存信号灯相关的配置项
type SignalConfig struct {
	GreenTicks        int     `json:"greenTicks"`        // 绿灯基准时长（步）
	AmberTicks        int     `json:"amberTicks"`        // 黄灯时长（步）
	RedTicks          int     `json:"redTicks"`          // 红灯基准时长（步）
	MinGreenTicks     int     `json:"minGreenTicks"`     // 绿灯时长下界
	MaxGreenTicks     int     `json:"maxGreenTicks"`     // 绿灯时长上界
	DetectionDistance float64 `json:"detectionDistance"` // 信号灯感知距离
	StopLineOffset    float64 `json:"stopLineOffset"`    // 停车线到交叉口边缘的距离
	AmberCommitDist   float64 `json:"amberCommitDist"`   // 黄灯时小于该距离则继续通过
	AmberBrakeDist    float64 `json:"amberBrakeDist"`    // 黄灯时大于该距离则制动停车
}

// DensityConfig 保存密度自适应启发式的配置项
type DensityConfig struct {
	WindowSize    int     `json:"windowSize"`    // 滚动窗口样本数上限
	EvalInterval  int     `json:"evalInterval"`  // 评估间隔（步）
	LowThreshold  float64 `json:"lowThreshold"`  // 低密度阈值
	HighThreshold float64 `json:"highThreshold"` // 高密度阈值
	LowFactor     float64 `json:"lowFactor"`     // 低密度绿灯时长因子
	HighFactor    float64 `json:"highFactor"`    // 高密度绿灯时长因子
	TrendFactor   float64 `json:"trendFactor"`   // 趋势增长/收缩的修正因子
	ZoneDecay     float64 `json:"zoneDecay"`     // 中心区优先级随距离衰减系数
}

// ReservationConfig 保存交叉口预约子系统的配置项
type ReservationConfig struct {
	Enabled      bool    `json:"enabled"`      // 是否启用预约子系统
	ZoneMargin   float64 `json:"zoneMargin"`   // 冲突区半径安全余量
	CrossingTime float64 `json:"crossingTime"` // 预约时间窗长度（步）
}

// HeuristicConfig 保存信号控制策略选择的配置项
type HeuristicConfig struct {
	Selector         string  `json:"selector"`         // fixed | random | density | wave | manual | external
	RandomFlipProb   float64 `json:"randomFlipProb"`   // random策略每次评估推进相位的概率
	RandomInterval   int     `json:"randomInterval"`   // random策略评估间隔（步）
	WaveOffsetTicks  int     `json:"waveOffsetTicks"`  // 绿波策略相邻列的相位偏移（步）
	ExternalTimeout  int     `json:"externalTimeout"`  // 外部决策超时（步）
	ExternalInterval int     `json:"externalInterval"` // 外部决策评估间隔（步）
}

// LoggingConfig 保存日志与数据写出相关的配置项
type LoggingConfig struct {
	IntervalWriteToLog int    `json:"intervalWriteToLog"` // 状态日志输出间隔（步）
	IntervalWriteData  int    `json:"intervalWriteData"`  // CSV数据写出间隔（步）
	LogDir             string `json:"logDir"`
	DataDir            string `json:"dataDir"`
}

// Default 返回一套完整的默认配置
// 默认常量沿用原型系统的取值：间距300、绿灯180步、黄灯60步等
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TimeSteps:      36000,
			StepsPerSecond: 60,
		},
		Grid: GridConfig{
			Rows:        2,
			Cols:        2,
			Spacing:     300,
			OriginX:     300,
			OriginY:     200,
			StreetWidth: 50,
			LaneWidth:   16,
			NumLanes:    2,
			Margin:      100,
		},
		Vehicle: VehicleConfig{
			SpawnRate:   0.02,
			MinSpawnGap: 40,
			SpeedJitter: 0.15,
			Types: []VehicleTypeConfig{
				{Name: "car", Length: 30, Width: 20, MaxSpeed: 3.0, Share: 0.8, Priority: 0},
				{Name: "bus", Length: 54, Width: 22, MaxSpeed: 2.4, Share: 0.15, Priority: 1},
				{Name: "truck", Length: 60, Width: 24, MaxSpeed: 2.2, Share: 0.05, Priority: 0},
			},
		},
		Following: FollowingConfig{
			DesiredSpeed:   3.0,
			TimeHeadway:    18,
			MaxAccel:       0.1,
			ComfortDecel:   0.4,
			MinGap:         10,
			GapOffset:      2,
			SpeedExponent:  4,
			EmergencyDecel: 0.8,
			HardStopGap:    20,
		},
		LaneChange: LaneChangeConfig{
			GainThreshold:   0.02,
			Politeness:      0.3,
			SafeBrake:       -0.4,
			MinFrontGap:     44,
			MinRearGap:      44,
			MinTTC:          90,
			LateralCorridor: 16,
		},
		Turning: TurningConfig{
			DecisionZone:  120,
			LeftTurnProb:  0.15,
			RightTurnProb: 0.2,
			Permissive:    false,
		},
		Signal: SignalConfig{
			GreenTicks:        180,
			AmberTicks:        60,
			RedTicks:          240,
			MinGreenTicks:     60,
			MaxGreenTicks:     600,
			DetectionDistance: 150,
			StopLineOffset:    5,
			AmberCommitDist:   30,
			AmberBrakeDist:    80,
		},
		Density: DensityConfig{
			WindowSize:    10,
			EvalInterval:  120,
			LowThreshold:  3,
			HighThreshold: 8,
			LowFactor:     0.6,
			HighFactor:    1.5,
			TrendFactor:   0.15,
			ZoneDecay:     0.25,
		},
		Reservation: ReservationConfig{
			Enabled:      true,
			ZoneMargin:   0.5,
			CrossingTime: 60,
		},
		Heuristic: HeuristicConfig{
			Selector:         "fixed",
			RandomFlipProb:   0.3,
			RandomInterval:   120,
			WaveOffsetTicks:  60,
			ExternalTimeout:  180,
			ExternalInterval: 600,
		},
		Logging: LoggingConfig{
			IntervalWriteToLog: 600,
			IntervalWriteData:  3600,
			LogDir:             "./log",
			DataDir:            "./data",
		},
	}
}

// Load 从JSON文件加载配置
// 未出现的字段保留默认值；加载完成后立即校验，配置错误在构造期暴露
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置的合法性
func (c *Config) Validate() error {
	if c.Grid.Rows < 1 || c.Grid.Cols < 1 {
		return fmt.Errorf("invalid grid dimensions %dx%d", c.Grid.Rows, c.Grid.Cols)
	}
	if c.Grid.Spacing <= c.Grid.StreetWidth {
		return fmt.Errorf("grid spacing %.1f must exceed street width %.1f", c.Grid.Spacing, c.Grid.StreetWidth)
	}
	if c.Grid.NumLanes < 1 {
		return fmt.Errorf("numLanes must be at least 1, got %d", c.Grid.NumLanes)
	}
	if float64(c.Grid.NumLanes)*c.Grid.LaneWidth > c.Grid.StreetWidth {
		return fmt.Errorf("lanes %.1f wider than street %.1f", float64(c.Grid.NumLanes)*c.Grid.LaneWidth, c.Grid.StreetWidth)
	}
	if len(c.Vehicle.Types) == 0 {
		return fmt.Errorf("at least one vehicle type is required")
	}
	var shareSum float64
	for _, t := range c.Vehicle.Types {
		if t.Length <= 0 || t.Width <= 0 || t.MaxSpeed <= 0 {
			return fmt.Errorf("vehicle type %q has non-positive dimensions or speed", t.Name)
		}
		if t.Share < 0 {
			return fmt.Errorf("vehicle type %q has negative share", t.Name)
		}
		shareSum += t.Share
	}
	if shareSum <= 0 {
		return fmt.Errorf("vehicle type shares sum to zero")
	}
	if c.Following.MaxAccel <= 0 || c.Following.ComfortDecel <= 0 || c.Following.EmergencyDecel <= 0 {
		return fmt.Errorf("following model accelerations must be positive")
	}
	if c.Following.DesiredSpeed <= 0 || c.Following.MinGap <= 0 {
		return fmt.Errorf("following model desiredSpeed and minGap must be positive")
	}
	if c.Signal.GreenTicks <= 0 || c.Signal.AmberTicks <= 0 || c.Signal.RedTicks <= 0 {
		return fmt.Errorf("signal dwell times must be positive")
	}
	if c.Signal.MinGreenTicks <= 0 || c.Signal.MaxGreenTicks < c.Signal.MinGreenTicks {
		return fmt.Errorf("signal dwell bounds [%d, %d] are not ordered", c.Signal.MinGreenTicks, c.Signal.MaxGreenTicks)
	}
	if c.Density.WindowSize < 1 || c.Density.WindowSize > 10 {
		return fmt.Errorf("density window size %d must be in [1, 10]", c.Density.WindowSize)
	}
	if c.Density.EvalInterval <= 0 {
		return fmt.Errorf("density evalInterval must be positive")
	}
	if c.Density.HighThreshold < c.Density.LowThreshold {
		return fmt.Errorf("density thresholds [%.1f, %.1f] are not ordered", c.Density.LowThreshold, c.Density.HighThreshold)
	}
	switch c.Heuristic.Selector {
	case "fixed", "random", "density", "wave", "manual", "external":
	default:
		return fmt.Errorf("unknown heuristic selector %q", c.Heuristic.Selector)
	}
	if c.Heuristic.Selector == "wave" && c.Heuristic.WaveOffsetTicks <= 0 {
		return fmt.Errorf("wave heuristic offset must be positive, got %d", c.Heuristic.WaveOffsetTicks)
	}
	if c.Reservation.CrossingTime <= 0 {
		return fmt.Errorf("reservation crossingTime must be positive")
	}
	return nil
}
