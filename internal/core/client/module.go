package client

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
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

	// Engine 网络引擎
	Engine engine.Engine `name:"engine"`

	// Config 配置（可选）
	Config *config.Config `optional:"true"`

	// Registerer 指标注册器（可选）
	Registerer prometheus.Registerer `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Client 根句柄，由模块生命周期负责释放
	Client *Client `name:"client"`

	// EventLoop 协调器
	EventLoop *EventLoop
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	cfg := config.DefaultClientConfig()
	if input.Config != nil {
		cfg = input.Config.Client
	}

	c, loop := New(input.Engine, cfg, WithMetrics(NewMetrics(input.Registerer)))
	return ModuleOutput{
		Client:    c,
		EventLoop: loop,
	}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("client",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC        fx.Lifecycle
	Client    *Client `name:"client"`
	EventLoop *EventLoop
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	runCtx, cancel := context.WithCancel(context.Background())

	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Info("协调器启动")
			go input.EventLoop.Run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("协调器停止")
			_ = input.Client.Close()
			cancel()
			select {
			case <-input.EventLoop.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// ============================================================================
//                              模块元信息
// ============================================================================

// 模块元信息常量
const (
	Version     = "1.0.0"
	Name        = "client"
	Description = "命令/响应协调模块，提供动作句柄与单一协调器"
)
