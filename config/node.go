package config

import (
	"fmt"

	"github.com/dep2p/go-fileshare/pkg/types"
)

// NodeConfig 节点配置
type NodeConfig struct {
	// ListenAddrs 监听地址（multiaddr 格式）
	ListenAddrs []string `json:"listen_addrs"`
}

// DefaultNodeConfig 返回默认的节点配置
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		ListenAddrs: []string{"/ip4/127.0.0.1/tcp/0"},
	}
}

// Validate 验证节点配置
func (c *NodeConfig) Validate() error {
	if _, err := types.ParseMultiaddrs(c.ListenAddrs); err != nil {
		return fmt.Errorf("node: %w", err)
	}
	return nil
}
