package fileshare

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/internal/core/memnet"
	"github.com/dep2p/go-fileshare/internal/core/responder"
	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
	"github.com/dep2p/go-fileshare/pkg/types"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config   *config.Config
	network  *memnet.Network
	handler  responder.NotificationHandler
	registry *prometheus.Registry
}

func newOptions() *options {
	return &options{
		config: config.NewConfig(),
	}
}

// WithConfig 使用完整配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithNetwork 加入指定的进程内网络
//
// 未设置时节点使用私有网络，只能和自己通信。
func WithNetwork(net *memnet.Network) Option {
	return func(o *options) error {
		o.network = net
		return nil
	}
}

// WithListenAddrs 设置监听地址（multiaddr 格式）
func WithListenAddrs(addrs ...string) Option {
	return func(o *options) error {
		if _, err := types.ParseMultiaddrs(addrs); err != nil {
			return err
		}
		o.config.Node.ListenAddrs = addrs
		return nil
	}
}

// WithMailboxSize 设置协调器邮箱容量
func WithMailboxSize(n int) Option {
	return func(o *options) error {
		o.config.Client.MailboxSize = n
		return nil
	}
}

// WithNotificationHandler 接收入站请求以外的通知
func WithNotificationHandler(fn func(ev engine.Event)) Option {
	return func(o *options) error {
		o.handler = fn
		return nil
	}
}

// WithMetricsRegistry 将节点指标注册到 reg
//
// 未设置时每个节点使用独立的 Registry。
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *options) error {
		o.registry = reg
		return nil
	}
}
