package fileshare

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-fileshare/internal/core/client"
	"github.com/dep2p/go-fileshare/internal/core/memnet"
	"github.com/dep2p/go-fileshare/internal/core/responder"
	"github.com/dep2p/go-fileshare/internal/core/storage"
)

// nodeParams 从 Fx 应用取出的组件
type nodeParams struct {
	fx.In

	Client    *client.Client `name:"client"`
	EventLoop *client.EventLoop
	Engine    *memnet.Node
	Store     *storage.Store
}

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：memnet → storage → client → responder。
// 停止顺序相反：Responder 先释放句柄，协调器随后退出，最后关闭存储与引擎。
func buildFxApp(o *options, n *Node) (*fx.App, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),
		fx.Provide(func() prometheus.Registerer { return o.registry }),

		memnet.Module(),
		storage.Module(),
		client.Module(),
		responder.Module(),

		fx.Populate(&n.params),

		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	}

	if o.network != nil {
		modules = append(modules, fx.Supply(o.network))
	}
	if o.handler != nil {
		modules = append(modules, fx.Supply(o.handler))
	}

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}
