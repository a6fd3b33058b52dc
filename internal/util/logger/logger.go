// Package logger 提供 go-fileshare 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别
//   - 环境变量配置（FILESHARE_LOG_LEVEL, FILESHARE_LOG_FORMAT）
//   - 运行时切换输出目标与级别
//
// 使用示例:
//
//	var log = logger.Logger("client")
//
//	log.Info("动作已入队", "kind", kind)
//	log.Debug("完成事件无匹配条目", "query", id)
//
// 环境变量配置:
//
//	# 所有模块 info，client 模块 debug
//	FILESHARE_LOG_LEVEL=client=debug,info
//
//	# JSON 格式输出
//	FILESHARE_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler
)

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用返回相同实例。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	h := newHandler(subsystem, cfg.LevelForSubsystem(subsystem), cfg)

	actual, loaded := loggers.LoadOrStore(subsystem, slog.New(h))
	if !loaded {
		handlers.Store(subsystem, h)
	}
	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的日志级别，并作为之后创建的子系统的默认级别
func SetGlobalLevel(level slog.Level) {
	ConfigFromEnv().setDefaultLevel(level)
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// SetOutput 设置全局日志输出目标
//
// 已创建的 Logger 同样生效（输出经由 dynamicWriter 间接查找）。
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}

// SetFormat 设置全局输出格式，覆盖 FILESHARE_LOG_FORMAT
func SetFormat(f LogFormat) {
	globalFormat.Store(int32(f))
}

// ParseFormat 解析输出格式名称
func ParseFormat(name string) (LogFormat, bool) {
	switch name {
	case "text", "":
		return FormatText, true
	case "json":
		return FormatJSON, true
	default:
		return FormatText, false
	}
}

// Discard 返回一个丢弃所有日志的 Logger，用于测试
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}
