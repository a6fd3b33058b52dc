package config

import (
	"fmt"
	"time"
)

// DefaultProviderTTL 默认 Provider 记录 TTL
const DefaultProviderTTL = 24 * time.Hour

// EngineConfig 网络引擎配置
type EngineConfig struct {
	// RequestTimeout 出站内容请求超时
	RequestTimeout Duration `json:"request_timeout"`

	// ProviderTTL Provider 记录有效期
	ProviderTTL Duration `json:"provider_ttl"`

	// ProviderCacheSize Provider 记录表最大键数
	ProviderCacheSize int `json:"provider_cache_size"`

	// EventBuffer 引擎事件通道缓冲大小
	EventBuffer int `json:"event_buffer"`
}

// DefaultEngineConfig 返回默认的引擎配置
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RequestTimeout:    Duration(10 * time.Second),
		ProviderTTL:       Duration(DefaultProviderTTL),
		ProviderCacheSize: 4096,
		EventBuffer:       64,
	}
}

// Validate 验证引擎配置
func (c *EngineConfig) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("engine: request_timeout must be positive")
	}
	if c.ProviderTTL <= 0 {
		return fmt.Errorf("engine: provider_ttl must be positive")
	}
	if c.ProviderCacheSize < 1 {
		return fmt.Errorf("engine: provider_cache_size must be >= 1, got %d", c.ProviderCacheSize)
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("engine: event_buffer must be >= 0, got %d", c.EventBuffer)
	}
	return nil
}
