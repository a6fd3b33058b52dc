package client

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

func provideFakeEngine(fe *fakeEngine) fx.Option {
	return fx.Provide(fx.Annotate(
		func() engine.Engine { return fe },
		fx.ResultTags(`name:"engine"`),
	))
}

type moduleHandles struct {
	fx.In
	Client    *Client `name:"client"`
	EventLoop *EventLoop
}

// TestModule_Lifecycle 模块启动后协调器运行，停止后退出
func TestModule_Lifecycle(t *testing.T) {
	fe := newFakeEngine()
	var h moduleHandles

	app := fxtest.New(t,
		provideFakeEngine(fe),
		Module(),
		fx.Populate(&h),
	)
	app.RequireStart()

	require.NotNil(t, h.Client)
	require.NoError(t, h.Client.StartListening(context.Background(), mustAddr(t, "/ip4/127.0.0.1/tcp/0")))
	assert.Equal(t, "listen", fe.waitCall(t).op)

	app.RequireStop()

	select {
	case <-h.EventLoop.Done():
	default:
		t.Fatal("停止后协调器应已退出")
	}
	assert.ErrorIs(t, h.Client.StartProviding(context.Background(), "k"), ErrMailboxClosed)
}

// TestModule_ConfigAndRegisterer 使用注入的配置与指标注册器
func TestModule_ConfigAndRegisterer(t *testing.T) {
	fe := newFakeEngine()
	reg := prometheus.NewRegistry()
	cfg := config.NewConfig()
	cfg.Client.MailboxSize = 4

	var h moduleHandles
	app := fxtest.New(t,
		provideFakeEngine(fe),
		fx.Supply(cfg),
		fx.Provide(func() prometheus.Registerer { return reg }),
		Module(),
		fx.Populate(&h),
	)
	defer app.RequireStart().RequireStop()

	assert.Equal(t, 4, cap(h.EventLoop.mailbox))

	require.NoError(t, h.Client.StartListening(context.Background(), mustAddr(t, "/ip4/127.0.0.1/tcp/0")))
	fe.waitCall(t)

	n, err := testutil.GatherAndCount(reg, "fileshare_client_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
