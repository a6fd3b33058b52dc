package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
	"github.com/dep2p/go-fileshare/pkg/types"
)

// ============================================================================
//                              同步动作
// ============================================================================

func TestStartListening(t *testing.T) {
	tl := startTestLoop(t)
	ctx := context.Background()
	addr := mustAddr(t, "/ip4/127.0.0.1/tcp/4001")

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, tl.client.StartListening(ctx, addr))

		call := tl.engine.waitCall(t)
		assert.Equal(t, "listen", call.op)
		assert.True(t, addr.Equal(call.addr))
		assert.Equal(t, 0.0, testutil.ToFloat64(tl.metrics.pending), "同步动作不创建待处理条目")
	})

	t.Run("EngineError", func(t *testing.T) {
		tl.engine.mu.Lock()
		tl.engine.listenErr = fmt.Errorf("%w: port taken", engine.ErrAddressInUse)
		tl.engine.mu.Unlock()

		err := tl.client.StartListening(ctx, addr)
		assert.ErrorIs(t, err, engine.ErrAddressInUse)
		tl.engine.waitCall(t)
		assert.Equal(t, 0.0, testutil.ToFloat64(tl.metrics.pending))
	})
}

func TestDial_ForwardsEngineError(t *testing.T) {
	tl := startTestLoop(t)
	tl.engine.dialErr = engine.ErrDialFailed

	peer := types.PeerID{9}
	err := tl.client.Dial(context.Background(), peer, mustAddr(t, "/ip4/10.0.0.9/tcp/4001"))
	assert.ErrorIs(t, err, engine.ErrDialFailed)

	call := tl.engine.waitCall(t)
	assert.Equal(t, "dial", call.op)
	assert.Equal(t, peer, call.peer)
}

// ============================================================================
//                              关联与路由
// ============================================================================

// TestGetProviders_CompletionOrder 后提交的查询先完成，各自拿到自己的结果
func TestGetProviders_CompletionOrder(t *testing.T) {
	tl := startTestLoop(t)
	ctx := context.Background()

	r1 := goCall(func() ([]types.PeerID, error) { return tl.client.GetProviders(ctx, "file1") })
	c1 := tl.engine.waitCall(t)
	require.Equal(t, types.ContentKey("file1"), c1.key)

	r2 := goCall(func() ([]types.PeerID, error) { return tl.client.GetProviders(ctx, "file2") })
	c2 := tl.engine.waitCall(t)
	require.Equal(t, types.ContentKey("file2"), c2.key)

	p1 := []types.PeerID{{1}}
	p2 := []types.PeerID{{2}, {3}}

	tl.engine.emit(engine.DiscoverDone{ID: c2.query, Providers: p2})
	res2 := waitResult(t, r2)
	require.NoError(t, res2.err)
	assert.Equal(t, p2, res2.val)

	select {
	case <-r1:
		t.Fatal("file1 的调用不应在其完成事件之前返回")
	case <-time.After(50 * time.Millisecond):
	}

	tl.engine.emit(engine.DiscoverDone{ID: c1.query, Providers: p1})
	res1 := waitResult(t, r1)
	require.NoError(t, res1.err)
	assert.Equal(t, p1, res1.val)
}

func TestGetProviders_NoProviders(t *testing.T) {
	tl := startTestLoop(t)

	r := goCall(func() ([]types.PeerID, error) { return tl.client.GetProviders(context.Background(), "missing") })
	c := tl.engine.waitCall(t)
	tl.engine.emit(engine.DiscoverDone{ID: c.query, Err: engine.ErrNoProvidersFound})

	res := waitResult(t, r)
	assert.ErrorIs(t, res.err, engine.ErrNoProvidersFound)
	assert.Nil(t, res.val)
}

// TestRequestContent_Concurrent N 个并发请求按逆序完成，全部收到自己的内容
func TestRequestContent_Concurrent(t *testing.T) {
	tl := startTestLoop(t)
	ctx := context.Background()
	const n = 16

	results := make(map[types.ContentKey]<-chan asyncResult[[]byte], n)
	for i := 0; i < n; i++ {
		i := i
		key := types.ContentKey(fmt.Sprintf("file-%02d", i))
		results[key] = goCall(func() ([]byte, error) {
			return tl.client.RequestContent(ctx, types.PeerID{byte(i)}, key)
		})
	}

	calls := make([]engineCall, 0, n)
	for i := 0; i < n; i++ {
		calls = append(calls, tl.engine.waitCall(t))
	}

	for i := len(calls) - 1; i >= 0; i-- {
		c := calls[i]
		tl.engine.emit(engine.RequestDone{ID: c.request, Payload: []byte("content of " + c.key)})
	}

	for key, ch := range results {
		res := waitResult(t, ch)
		require.NoError(t, res.err, key)
		assert.Equal(t, "content of "+string(key), string(res.val))
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(tl.metrics.pending) == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, float64(n), testutil.ToFloat64(tl.metrics.results.WithLabelValues(KindRequestContent, outcomeOK)))
}

func TestRequestContent_Timeout(t *testing.T) {
	tl := startTestLoop(t)

	r := goCall(func() ([]byte, error) {
		return tl.client.RequestContent(context.Background(), types.PeerID{4}, "slow")
	})
	c := tl.engine.waitCall(t)
	tl.engine.emit(engine.RequestDone{ID: c.request, Err: engine.ErrRequestTimedOut})

	res := waitResult(t, r)
	assert.ErrorIs(t, res.err, engine.ErrRequestTimedOut)
}

// TestCallerCancel 调用方放弃等待后，迟到的投递是空操作，不影响其他调用
func TestCallerCancel(t *testing.T) {
	tl := startTestLoop(t)

	cctx, cancel := context.WithCancel(context.Background())
	abandoned := goCall(func() ([]byte, error) { return tl.client.RequestContent(cctx, types.PeerID{1}, "a") })
	ca := tl.engine.waitCall(t)

	other := goCall(func() ([]byte, error) {
		return tl.client.RequestContent(context.Background(), types.PeerID{2}, "b")
	})
	cb := tl.engine.waitCall(t)

	cancel()
	res := waitResult(t, abandoned)
	assert.ErrorIs(t, res.err, context.Canceled)

	// 条目仍在：完成事件正常匹配，不计为过期事件
	tl.engine.emit(engine.RequestDone{ID: ca.request, Payload: []byte("late")})
	tl.engine.emit(engine.RequestDone{ID: cb.request, Payload: []byte("b")})

	resB := waitResult(t, other)
	require.NoError(t, resB.err)
	assert.Equal(t, []byte("b"), resB.val)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(tl.metrics.pending) == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(tl.metrics.stale))
}

// ============================================================================
//                              通知
// ============================================================================

func TestUnsolicitedEvents_Forwarded(t *testing.T) {
	tl := startTestLoop(t)

	pending := goCall(func() ([]types.PeerID, error) {
		return tl.client.GetProviders(context.Background(), "file1")
	})
	c := tl.engine.waitCall(t)

	inbound := engine.InboundRequest{
		Peer:    types.PeerID{7},
		Key:     "file1",
		Channel: engine.NewResponseChannel(types.PeerID{7}),
	}
	tl.engine.emit(inbound)

	select {
	case ev := <-tl.loop.Notifications():
		assert.Equal(t, inbound, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到通知")
	}

	select {
	case <-pending:
		t.Fatal("通知不应被路由给待处理调用")
	case <-time.After(50 * time.Millisecond):
	}

	tl.engine.emit(engine.DiscoverDone{ID: c.query, Providers: []types.PeerID{{7}}})
	res := waitResult(t, pending)
	require.NoError(t, res.err)
}

// TestStaleCompletion_Discarded 无匹配条目的完成事件被丢弃，不转发为通知
func TestStaleCompletion_Discarded(t *testing.T) {
	tl := startTestLoop(t)

	tl.engine.emit(engine.RequestDone{ID: 999, Payload: []byte("nobody")})
	tl.engine.emit(engine.AdvertiseDone{ID: 998})
	marker := engine.PeerConnected{Peer: types.PeerID{5}, Outbound: true}
	tl.engine.emit(marker)

	select {
	case ev := <-tl.loop.Notifications():
		assert.Equal(t, marker, ev, "过期完成事件不应出现在通知流中")
	case <-time.After(2 * time.Second):
		t.Fatal("未收到通知")
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(tl.metrics.stale))
}

// TestNotifications_Ordered 观察者未读取时协调器不阻塞，通知保持引擎顺序
func TestNotifications_Ordered(t *testing.T) {
	tl := startTestLoop(t)
	const n = 50

	go func() {
		for i := 0; i < n; i++ {
			tl.engine.emit(engine.PeerConnected{Peer: types.PeerID{byte(i)}})
		}
	}()

	// 通知积压期间动作仍被处理
	require.NoError(t, tl.client.StartListening(context.Background(), mustAddr(t, "/ip4/127.0.0.1/tcp/1")))
	tl.engine.waitCall(t)

	for i := 0; i < n; i++ {
		select {
		case ev := <-tl.loop.Notifications():
			pc, ok := ev.(engine.PeerConnected)
			require.True(t, ok)
			assert.Equal(t, types.PeerID{byte(i)}, pc.Peer)
		case <-time.After(2 * time.Second):
			t.Fatalf("第 %d 个通知未到达", i)
		}
	}
	assert.Equal(t, float64(n), testutil.ToFloat64(tl.metrics.notifications))
}

// ============================================================================
//                              RespondContent
// ============================================================================

func TestRespondContent(t *testing.T) {
	tl := startTestLoop(t)

	payload := []byte("file bytes")
	token := engine.NewResponseChannel(types.PeerID{3})

	require.NoError(t, tl.client.RespondContent(context.Background(), payload, token))

	call := tl.engine.waitCall(t)
	assert.Equal(t, "respond", call.op)
	assert.Equal(t, payload, call.payload)
	assert.Equal(t, token, call.channel)
	assert.Equal(t, 0.0, testutil.ToFloat64(tl.metrics.pending))
}

func TestRespondContent_EngineErrorNotSurfaced(t *testing.T) {
	tl := startTestLoop(t)
	tl.engine.sendErr = engine.ErrSendFailed

	err := tl.client.RespondContent(context.Background(), []byte("x"), engine.NewResponseChannel(types.PeerID{1}))
	assert.NoError(t, err)
	tl.engine.waitCall(t)
}

// ============================================================================
//                              邮箱与背压
// ============================================================================

func TestMailbox_Backpressure(t *testing.T) {
	fe := newFakeEngine()
	c, loop := New(fe, config.ClientConfig{MailboxSize: 1})
	ch := engine.NewResponseChannel(types.PeerID{1})

	// 协调器未运行：第一个动作占满邮箱
	require.NoError(t, c.RespondContent(context.Background(), []byte("1"), ch))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.RespondContent(ctx, []byte("2"), ch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	runCtx, stop := context.WithCancel(context.Background())
	defer func() {
		stop()
		<-loop.Done()
	}()
	go loop.Run(runCtx)

	call := fe.waitCall(t)
	assert.Equal(t, []byte("1"), call.payload)
}

func TestDuplicateToken(t *testing.T) {
	tl := startTestLoop(t)
	fixed := engine.QueryID(5)
	tl.engine.fixedQuery = &fixed

	first := goCall(func() (struct{}, error) {
		return struct{}{}, tl.client.StartProviding(context.Background(), "a")
	})
	tl.engine.waitCall(t)

	err := tl.client.StartProviding(context.Background(), "b")
	assert.ErrorIs(t, err, ErrResultLost)
	tl.engine.waitCall(t)

	tl.engine.emit(engine.AdvertiseDone{ID: fixed})
	res := waitResult(t, first)
	assert.NoError(t, res.err)
}

// ============================================================================
//                              关闭
// ============================================================================

// TestShutdown_LastHandle 最后一个句柄释放后协调器退出，未完成的请求得到 ErrResultLost
func TestShutdown_LastHandle(t *testing.T) {
	fe := newFakeEngine()
	metrics := NewMetrics(nil)
	c, loop := New(fe, config.DefaultClientConfig(), WithMetrics(metrics))
	go loop.Run(context.Background())

	clone, err := c.Clone()
	require.NoError(t, err)

	pending := goCall(func() ([]types.PeerID, error) { return clone.GetProviders(context.Background(), "file1") })
	fe.waitCall(t)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "重复 Close 无副作用")

	select {
	case <-loop.Done():
		t.Fatal("仍有句柄未释放时协调器不应退出")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, clone.Close())

	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("协调器未退出")
	}

	res := waitResult(t, pending)
	assert.ErrorIs(t, res.err, ErrResultLost)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues(KindGetProviders, outcomeLost)))

	assert.ErrorIs(t, c.StartListening(context.Background(), mustAddr(t, "/ip4/127.0.0.1/tcp/1")), ErrMailboxClosed)
	_, err = c.Clone()
	assert.ErrorIs(t, err, ErrMailboxClosed)

	_, ok := <-loop.Notifications()
	assert.False(t, ok, "通知通道应被关闭")
}

func TestShutdown_EngineClosed(t *testing.T) {
	tl := startTestLoop(t)

	pending := goCall(func() ([]byte, error) {
		return tl.client.RequestContent(context.Background(), types.PeerID{1}, "file")
	})
	tl.engine.waitCall(t)

	require.NoError(t, tl.engine.Close())

	res := waitResult(t, pending)
	assert.ErrorIs(t, res.err, ErrResultLost)
	<-tl.loop.Done()

	err := tl.client.StartProviding(context.Background(), "file")
	assert.ErrorIs(t, err, ErrMailboxClosed)
}

func TestShutdown_ContextCancel(t *testing.T) {
	tl := startTestLoop(t)

	pending := goCall(func() (struct{}, error) {
		return struct{}{}, tl.client.StartProviding(context.Background(), "file")
	})
	tl.engine.waitCall(t)

	tl.cancel()
	res := waitResult(t, pending)
	assert.ErrorIs(t, res.err, ErrResultLost)
	<-tl.loop.Done()
	assert.True(t, errors.Is(tl.client.Dial(context.Background(), types.PeerID{1}, nil), ErrMailboxClosed))
}

func TestRun_OnlyOnce(t *testing.T) {
	tl := startTestLoop(t)

	returned := make(chan struct{})
	go func() {
		tl.loop.Run(context.Background())
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("第二次 Run 应立即返回")
	}

	require.NoError(t, tl.client.StartListening(context.Background(), mustAddr(t, "/ip4/127.0.0.1/tcp/2")))
	tl.engine.waitCall(t)
}
