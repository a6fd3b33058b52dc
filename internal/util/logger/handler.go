package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var (
	// globalOutput 全局日志输出目标，默认为 stderr
	globalOutput   io.Writer = os.Stderr
	globalOutputMu sync.RWMutex
)

// globalFormat 当前输出格式，-1 表示尚未设置、沿用环境变量
var globalFormat atomic.Int32

func init() {
	globalFormat.Store(-1)
}

func currentFormat(cfg *Config) LogFormat {
	if f := globalFormat.Load(); f >= 0 {
		return LogFormat(f)
	}
	return cfg.Format
}

// dynamicWriter 每次写入时查找 globalOutput
type dynamicWriter struct{}

func (dynamicWriter) Write(p []byte) (int, error) {
	globalOutputMu.RLock()
	output := globalOutput
	globalOutputMu.RUnlock()
	return output.Write(p)
}

// levelBox 可在派生 Handler 之间共享的级别
type levelBox struct {
	mu    sync.RWMutex
	level slog.Level
}

func (b *levelBox) get() slog.Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.level
}

func (b *levelBox) set(level slog.Level) {
	b.mu.Lock()
	b.level = level
	b.mu.Unlock()
}

// subsystemHandler 支持子系统级别控制的 slog.Handler
//
// WithAttrs/WithGroup 派生出的 Handler 共享同一个 levelBox，
// 因此 SetLevel 对 log.With(...) 得到的 Logger 同样生效。
type subsystemHandler struct {
	subsystem string
	level     *levelBox
	cfg       *Config
	text      slog.Handler
	json      slog.Handler
}

func newHandler(subsystem string, level slog.Level, cfg *Config) *subsystemHandler {
	opts := &slog.HandlerOptions{
		// 级别过滤由 subsystemHandler 负责
		Level:     slog.LevelDebug,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(levelToString(lvl))
				}
			}
			return a
		},
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	return &subsystemHandler{
		subsystem: subsystem,
		level:     &levelBox{level: level},
		cfg:       cfg,
		text:      slog.NewTextHandler(dynamicWriter{}, opts).WithAttrs(attrs),
		json:      slog.NewJSONHandler(dynamicWriter{}, opts).WithAttrs(attrs),
	}
}

// Enabled 检查是否启用指定级别
func (h *subsystemHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.get()
}

// Handle 处理日志记录
func (h *subsystemHandler) Handle(ctx context.Context, r slog.Record) error {
	if currentFormat(h.cfg) == FormatJSON {
		return h.json.Handle(ctx, r)
	}
	return h.text.Handle(ctx, r)
}

// WithAttrs 添加属性
func (h *subsystemHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	d := *h
	d.text = h.text.WithAttrs(attrs)
	d.json = h.json.WithAttrs(attrs)
	return &d
}

// WithGroup 添加组
func (h *subsystemHandler) WithGroup(name string) slog.Handler {
	d := *h
	d.text = h.text.WithGroup(name)
	d.json = h.json.WithGroup(name)
	return &d
}

// SetLevel 动态设置日志级别
func (h *subsystemHandler) SetLevel(level slog.Level) {
	h.level.set(level)
}

func levelToString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// DiscardHandler 返回一个丢弃所有日志的 Handler
func DiscardHandler() slog.Handler {
	return discardHandler{}
}
