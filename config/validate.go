package config

import (
	"errors"
	"fmt"
)

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 邮箱容量小于 1 -> 使用默认值
//   - 非正的超时或 TTL -> 使用默认值
//   - 空的监听地址列表 -> 使用默认值
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	if c.Client.MailboxSize < 1 {
		c.Client.MailboxSize = DefaultClientConfig().MailboxSize
	}
	if c.Engine.RequestTimeout <= 0 {
		c.Engine.RequestTimeout = DefaultEngineConfig().RequestTimeout
	}
	if c.Engine.ProviderTTL <= 0 {
		c.Engine.ProviderTTL = DefaultEngineConfig().ProviderTTL
	}
	if len(c.Node.ListenAddrs) == 0 {
		c.Node.ListenAddrs = DefaultNodeConfig().ListenAddrs
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

// MustValidate 验证配置，失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if c == nil {
		panic(errors.New("config is nil"))
	}
	if err := c.Validate(); err != nil {
		panic(err)
	}
}
