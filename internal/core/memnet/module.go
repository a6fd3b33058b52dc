package memnet

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Network 共享网络（可选，缺省时创建私有网络）
	Network *Network `optional:"true"`

	// Config 配置（可选）
	Config *config.Config `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Engine 网络引擎
	Engine engine.Engine `name:"engine"`

	// Node 具体节点，用于查询监听地址等引擎之外的信息
	Node *Node
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	net := input.Network
	if net == nil {
		cfg := config.DefaultEngineConfig()
		if input.Config != nil {
			cfg = input.Config.Engine
		}
		net = NewNetwork(cfg)
	}

	node, err := net.NewNode()
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{
		Engine: node,
		Node:   node,
	}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("memnet",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

// registerLifecycle 注册生命周期
//
// 停止时关闭节点。协调器在引擎事件通道关闭后也会退出。
func registerLifecycle(lc fx.Lifecycle, node *Node) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return node.Close()
		},
	})
}

// ============================================================================
//                              模块元信息
// ============================================================================

// 模块元信息常量
const (
	Version     = "1.0.0"
	Name        = "memnet"
	Description = "进程内网络引擎，提供地址登记、Provider 记录与请求响应往返"
)
