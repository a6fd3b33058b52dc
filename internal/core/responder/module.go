package responder

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-fileshare/internal/core/client"
	"github.com/dep2p/go-fileshare/internal/core/storage"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Client     *client.Client `name:"client"`
	EventLoop  *client.EventLoop
	Store      *storage.Store
	Handler    NotificationHandler  `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// ProvideServices 提供 Responder
//
// Responder 持有根句柄的克隆，独立于根句柄释放。
func ProvideServices(input ModuleInput) (*Responder, error) {
	handle, err := input.Client.Clone()
	if err != nil {
		return nil, err
	}
	return New(handle, input.EventLoop.Notifications(), input.Store, input.Handler, input.Registerer), nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("responder",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

func registerLifecycle(lc fx.Lifecycle, r *Responder) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go r.Run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-r.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// 模块元信息常量
const (
	Version     = "1.0.0"
	Name        = "responder"
	Description = "入站内容请求响应模块"
)
