package config

import "fmt"

// ClientConfig Handle 与协调器配置
type ClientConfig struct {
	// MailboxSize 邮箱容量
	//
	// 默认 1：提交方立即感受到背压，而不是堆积无界的待处理动作。
	// 这是可调参数，不是契约。
	MailboxSize int `json:"mailbox_size"`

	// NotificationBuffer 通知通道缓冲大小
	//
	// 协调器内部以无界 FIFO 暂存通知，该值只影响对外通道的缓冲。
	NotificationBuffer int `json:"notification_buffer"`
}

// DefaultClientConfig 返回默认的 Client 配置
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MailboxSize:        1,
		NotificationBuffer: 16,
	}
}

// Validate 验证 Client 配置
func (c *ClientConfig) Validate() error {
	if c.MailboxSize < 1 {
		return fmt.Errorf("client: mailbox_size must be >= 1, got %d", c.MailboxSize)
	}
	if c.NotificationBuffer < 0 {
		return fmt.Errorf("client: notification_buffer must be >= 0, got %d", c.NotificationBuffer)
	}
	return nil
}
