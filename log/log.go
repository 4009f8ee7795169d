package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// InitLog 初始化日志文件，文件名带启动时间戳
// 未初始化时 WriteLog 退化为标准输出
func InitLog(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir %s: %w", dir, err)
	}
	name := filepath.Join(dir, fmt.Sprintf("run_%s.log", time.Now().Format("20060102_150405")))
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create log file %s: %w", name, err)
	}
	mu.Lock()
	logFile = f
	mu.Unlock()
	return nil
}

// WriteLog 写一行带时间戳的日志
func WriteLog(msg string) {
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05.000"), msg)
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_, _ = logFile.WriteString(line)
		return
	}
	fmt.Print(line)
}

// LogEnvironment 记录运行环境信息，便于复现实验
func LogEnvironment() {
	WriteLog(fmt.Sprintf("go version: %s, os: %s, arch: %s, cpus: %d",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU()))
}

// CloseLog 关闭日志文件
func CloseLog() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
