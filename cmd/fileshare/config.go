package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/internal/util/logger"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// 环境变量
const (
	envDataDir        = "FILESHARE_DATA_DIR"
	envInMemory       = "FILESHARE_IN_MEMORY"
	envRequestTimeout = "FILESHARE_REQUEST_TIMEOUT"
	envMailboxSize    = "FILESHARE_MAILBOX_SIZE"
)

// loadConfig 加载配置
//
// 优先级（从高到低）：命令行参数 > 环境变量 > 配置文件 > 默认值。
func loadConfig(path string) (*config.Config, error) {
	cfg := config.NewConfig()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := applyEnvOverrides(cfg, os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides 应用环境变量覆盖配置
func applyEnvOverrides(cfg *config.Config, getenv func(string) string) error {
	if v := getenv(envDataDir); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := getenv(envInMemory); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envInMemory, err)
		}
		cfg.Storage.InMemory = b
	}
	if v := getenv(envRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envRequestTimeout, err)
		}
		cfg.Engine.RequestTimeout = config.Duration(d)
	}
	if v := getenv(envMailboxSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envMailboxSize, err)
		}
		cfg.Client.MailboxSize = n
	}
	return nil
}

// setupLogging 按配置设置日志级别、格式与输出
//
// 返回的函数关闭日志文件；未配置文件时为空操作。
func setupLogging(cfg config.LogConfig) (func(), error) {
	noop := func() {}

	if level, ok := logger.ParseLevel(cfg.Level); ok {
		logger.SetGlobalLevel(level)
	}
	if format, ok := logger.ParseFormat(cfg.Format); ok {
		logger.SetFormat(format)
	}
	if cfg.File == "" {
		return noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
		return noop, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return noop, fmt.Errorf("打开日志文件失败: %w", err)
	}
	logger.SetOutput(file)

	return func() {
		logger.SetOutput(os.Stderr)
		_ = file.Close()
	}, nil
}
