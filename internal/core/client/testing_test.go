package client

import (
	"context"
	"sync"
	"testing"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
	"github.com/dep2p/go-fileshare/pkg/types"
)

// ============================================================================
//                              Fake Engine
// ============================================================================

// engineCall 记录一次引擎调用
type engineCall struct {
	op      string
	peer    types.PeerID
	key     types.ContentKey
	addr    ma.Multiaddr
	query   engine.QueryID
	request engine.RequestID
	payload []byte
	channel engine.ResponseChannel
}

// fakeEngine 脚本化的网络引擎
//
// 异步完成事件不会自动产生，由测试通过 emit 手动注入，
// 因此完成顺序完全由测试控制。
type fakeEngine struct {
	local  types.PeerID
	events chan engine.Event
	calls  chan engineCall

	mu          sync.Mutex
	nextQuery   engine.QueryID
	nextRequest engine.RequestID
	fixedQuery  *engine.QueryID
	listenErr   error
	dialErr     error
	sendErr     error
	closed      bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		local:  types.PeerID{0xfa, 0xce},
		events: make(chan engine.Event, 64),
		calls:  make(chan engineCall, 64),
	}
}

func (f *fakeEngine) LocalPeer() types.PeerID { return f.local }

func (f *fakeEngine) Listen(addr ma.Multiaddr) error {
	f.mu.Lock()
	err := f.listenErr
	f.mu.Unlock()
	f.calls <- engineCall{op: "listen", addr: addr}
	return err
}

func (f *fakeEngine) Dial(peer types.PeerID, addr ma.Multiaddr) error {
	f.mu.Lock()
	err := f.dialErr
	f.mu.Unlock()
	f.calls <- engineCall{op: "dial", peer: peer, addr: addr}
	return err
}

func (f *fakeEngine) newQuery() engine.QueryID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fixedQuery != nil {
		return *f.fixedQuery
	}
	f.nextQuery++
	return f.nextQuery
}

func (f *fakeEngine) StartProviding(key types.ContentKey) engine.QueryID {
	id := f.newQuery()
	f.calls <- engineCall{op: "provide", key: key, query: id}
	return id
}

func (f *fakeEngine) GetProviders(key types.ContentKey) engine.QueryID {
	id := f.newQuery()
	f.calls <- engineCall{op: "discover", key: key, query: id}
	return id
}

func (f *fakeEngine) SendRequest(peer types.PeerID, key types.ContentKey) engine.RequestID {
	f.mu.Lock()
	f.nextRequest++
	id := f.nextRequest
	f.mu.Unlock()
	f.calls <- engineCall{op: "request", peer: peer, key: key, request: id}
	return id
}

func (f *fakeEngine) SendResponse(payload []byte, ch engine.ResponseChannel) error {
	f.mu.Lock()
	err := f.sendErr
	f.mu.Unlock()
	f.calls <- engineCall{op: "respond", payload: payload, channel: ch}
	return err
}

func (f *fakeEngine) Events() <-chan engine.Event { return f.events }

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

// emit 注入引擎事件
func (f *fakeEngine) emit(ev engine.Event) {
	f.events <- ev
}

// waitCall 等待下一次引擎调用
func (f *fakeEngine) waitCall(t *testing.T) engineCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("等待引擎调用超时")
		return engineCall{}
	}
}

// ============================================================================
//                              测试辅助
// ============================================================================

// testLoop 启动协调器，测试结束时停止
type testLoop struct {
	client  *Client
	loop    *EventLoop
	engine  *fakeEngine
	metrics *Metrics
	cancel  context.CancelFunc
}

func startTestLoop(t *testing.T) *testLoop {
	t.Helper()

	fe := newFakeEngine()
	metrics := NewMetrics(prometheus.NewRegistry())
	c, loop := New(fe, config.DefaultClientConfig(), WithMetrics(metrics))

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	tl := &testLoop{client: c, loop: loop, engine: fe, metrics: metrics, cancel: cancel}
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return tl
}

// asyncResult 后台调用的结果
type asyncResult[T any] struct {
	val T
	err error
}

// goCall 在后台发起调用
func goCall[T any](fn func() (T, error)) <-chan asyncResult[T] {
	ch := make(chan asyncResult[T], 1)
	go func() {
		v, err := fn()
		ch <- asyncResult[T]{val: v, err: err}
	}()
	return ch
}

// waitResult 等待后台调用结果
func waitResult[T any](t *testing.T, ch <-chan asyncResult[T]) asyncResult[T] {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("等待调用结果超时")
		return asyncResult[T]{}
	}
}

func mustAddr(t *testing.T, s string) ma.Multiaddr {
	t.Helper()
	addr, err := ma.NewMultiaddr(s)
	require.NoError(t, err)
	return addr
}
