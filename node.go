package fileshare

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-fileshare/internal/core/client"
	"github.com/dep2p/go-fileshare/internal/util/logger"
	"github.com/dep2p/go-fileshare/pkg/types"
)

var log = logger.Logger("fileshare")

// stopTimeout 关闭节点时等待各组件停止的时间
const stopTimeout = 10 * time.Second

// Node 内容共享节点
type Node struct {
	opts   *options
	app    *fx.App
	params nodeParams

	mu      sync.Mutex
	started bool
	closed  bool
}

// ════════════════════════════════════════════════════════════════════════════
//                              构造函数
// ════════════════════════════════════════════════════════════════════════════

// New 创建新节点
//
// 创建节点但不启动，需要调用 Start() 启动。
func New(opts ...Option) (*Node, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	n := &Node{opts: o}

	var err error
	n.app, err = buildFxApp(o, n)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return n, nil
}

// Start 启动节点并监听配置的地址
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNodeClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}

	if err := n.app.Start(ctx); err != nil {
		return fmt.Errorf("start fx app: %w", err)
	}
	n.started = true

	addrs, err := types.ParseMultiaddrs(n.opts.config.Node.ListenAddrs)
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		if err := n.params.Client.StartListening(ctx, addr); err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
	}

	log.Info("节点已启动", "peer", n.ID().ShortString(), "addrs", n.ListenAddrs())
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              基本信息
// ════════════════════════════════════════════════════════════════════════════

// ID 返回节点 ID
func (n *Node) ID() types.PeerID {
	return n.params.Engine.LocalPeer()
}

// ListenAddrs 返回已生效的监听地址
func (n *Node) ListenAddrs() []ma.Multiaddr {
	return n.params.Engine.ListenAddrs()
}

// Metrics 返回节点指标
func (n *Node) Metrics() prometheus.Gatherer {
	return n.opts.registry
}

// Client 返回新的动作句柄
//
// 返回的句柄需要调用方 Close。
func (n *Node) Client() (*client.Client, error) {
	if err := n.checkRunning(); err != nil {
		return nil, err
	}
	return n.params.Client.Clone()
}

func (n *Node) checkRunning() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrNodeClosed
	}
	if !n.started {
		return ErrNotStarted
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              内容操作
// ════════════════════════════════════════════════════════════════════════════

// Connect 连接到指定节点
func (n *Node) Connect(ctx context.Context, peer types.PeerID, addr ma.Multiaddr) error {
	if err := n.checkRunning(); err != nil {
		return err
	}
	return n.params.Client.Dial(ctx, peer, addr)
}

// Provide 保存内容并在网络上通告本节点为其提供者
func (n *Node) Provide(ctx context.Context, key types.ContentKey, data []byte) error {
	if err := n.checkRunning(); err != nil {
		return err
	}
	if err := n.params.Store.Put(key, data); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	if err := n.params.Client.StartProviding(ctx, key); err != nil {
		return fmt.Errorf("advertise %s: %w", key, err)
	}
	log.Info("开始提供内容", "key", key, "bytes", len(data))
	return nil
}

// Fetch 从网络获取内容
//
// 向所有提供者并发请求，返回第一个成功的结果；全部失败时返回合并的错误。
// 本节点自身是唯一提供者时直接读取本地存储。
func (n *Node) Fetch(ctx context.Context, key types.ContentKey) ([]byte, error) {
	if err := n.checkRunning(); err != nil {
		return nil, err
	}

	providers, err := n.params.Client.GetProviders(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find providers for %s: %w", key, err)
	}

	self := n.ID()
	remote := make([]types.PeerID, 0, len(providers))
	for _, p := range providers {
		if p != self {
			remote = append(remote, p)
		}
	}
	if len(remote) == 0 {
		return n.params.Store.Get(key)
	}

	log.Debug("找到提供者", "key", key, "count", len(remote))
	return n.fetchFirst(ctx, key, remote)
}

// fetchFirst 并发请求，第一个成功的结果取消其余请求
func (n *Node) fetchFirst(ctx context.Context, key types.ContentKey, providers []types.PeerID) ([]byte, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		g      errgroup.Group
		mu     sync.Mutex
		errs   error
		winner = make(chan []byte, 1)
	)
	for _, p := range providers {
		p := p
		g.Go(func() error {
			data, err := n.params.Client.RequestContent(fetchCtx, p, key)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.ShortString(), err))
				mu.Unlock()
				return nil
			}
			select {
			case winner <- data:
				cancel()
			default:
			}
			return nil
		})
	}
	_ = g.Wait()

	select {
	case data := <-winner:
		return data, nil
	default:
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, key, errs)
}

// ════════════════════════════════════════════════════════════════════════════
//                              关闭
// ════════════════════════════════════════════════════════════════════════════

// Close 关闭节点
//
// 可重复调用。未启动的节点直接释放存储与引擎。
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if !n.started {
		_ = n.params.Client.Close()
		return multierr.Combine(
			n.params.Store.Close(),
			n.params.Engine.Close(),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	err := n.app.Stop(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("节点关闭超时", "timeout", stopTimeout)
	}
	log.Info("节点已关闭", "peer", n.ID().ShortString())
	return err
}
