package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridflow/config"
	"gridflow/log"
	"gridflow/recorder"
	"gridflow/simulator"
)

func main() {
	configPath := flag.String("config", "config/config.json", "配置文件路径")
	flag.Parse()

	// 加载配置，文件缺失时使用默认配置
	var cfg *config.Config
	if _, err := os.Stat(*configPath); err == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			panic(fmt.Sprintf("Failed to load config: %v", err))
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if err := log.InitLog(cfg.Logging.LogDir); err != nil {
		panic(fmt.Sprintf("Failed to init log: %v", err))
	}
	defer log.CloseLog()
	log.LogEnvironment()

	grid, err := simulator.NewGrid(cfg, nil)
	if err != nil {
		panic(fmt.Sprintf("Failed to build grid: %v", err))
	}
	defer grid.Close()

	sysRec, err := recorder.NewSystemRecorder(cfg.Logging.DataDir, grid.RunID())
	if err != nil {
		panic(fmt.Sprintf("Failed to init system recorder: %v", err))
	}
	tripRec, err := recorder.NewTripRecorder(cfg.Logging.DataDir, grid.RunID())
	if err != nil {
		panic(fmt.Sprintf("Failed to init trip recorder: %v", err))
	}

	// SIGINT/SIGTERM 在步间优雅停止
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WriteLog("----------------------------------Simulation Start----------------------------------")
	start := time.Now()

	steps := cfg.Simulation.TimeSteps
	for t := 0; t < steps; t++ {
		if err := grid.Run(ctx, 1); err != nil {
			if errors.Is(err, context.Canceled) {
				log.WriteLog("收到停止信号，提前结束模拟")
				break
			}
			panic(fmt.Sprintf("Simulation failed: %v", err))
		}

		tripRec.Record(grid.DrainCompletions())
		spawned, completed := grid.Counters()
		sysRec.Record(grid.Snapshot(), spawned, completed)

		if cfg.Logging.IntervalWriteToLog > 0 && (t+1)%cfg.Logging.IntervalWriteToLog == 0 {
			log.WriteLog(fmt.Sprintf("tick %d/%d: population=%d, spawned=%d, completed=%d",
				t+1, steps, grid.Population(), spawned, completed))
		}
		if cfg.Logging.IntervalWriteData > 0 && (t+1)%cfg.Logging.IntervalWriteData == 0 {
			sysRec.Flush()
			tripRec.Flush()
		}
	}

	sysRec.Flush()
	tripRec.Flush()

	spawned, completed := grid.Counters()
	log.WriteLog(fmt.Sprintf("simulation done 模拟完成: ticks=%d, spawned=%d, completed=%d, elapsed=%s",
		grid.Tick(), spawned, completed, time.Since(start)))
	log.WriteLog("---------------------------------- Completed ----------------------------------")
}
