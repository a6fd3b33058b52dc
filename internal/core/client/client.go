package client

import (
	"context"
	"sync"
	"sync/atomic"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
	"github.com/dep2p/go-fileshare/pkg/types"
)

// ============================================================================
//                              Client - 动作句柄
// ============================================================================

// handleShared 所有句柄共享的状态
type handleShared struct {
	mailbox chan<- command

	// refs 未释放的句柄数
	refs atomic.Int64

	// closed 在最后一个句柄释放时关闭，即邮箱关闭
	closed    chan struct{}
	closeOnce sync.Once

	// done 在协调器退出时关闭
	done <-chan struct{}
}

// Client 网络动作句柄
//
// 可被任意多个 goroutine 并发使用。句柄本身不持有网络状态，也不加锁，
// 并发安全完全来自邮箱。需要独立生命周期的持有者应使用 Clone。
type Client struct {
	shared   *handleShared
	released atomic.Bool
}

// Clone 返回共享同一邮箱的新句柄
//
// 新句柄需要单独 Close。邮箱已关闭时返回 ErrMailboxClosed。
func (c *Client) Clone() (*Client, error) {
	if c.released.Load() {
		return nil, ErrMailboxClosed
	}
	for {
		n := c.shared.refs.Load()
		if n <= 0 {
			return nil, ErrMailboxClosed
		}
		if c.shared.refs.CompareAndSwap(n, n+1) {
			return &Client{shared: c.shared}, nil
		}
	}
}

// Close 释放本句柄
//
// 对同一句柄重复调用无副作用。最后一个句柄释放后邮箱关闭，
// 协调器处理完已接收的动作后退出。
func (c *Client) Close() error {
	if !c.released.CompareAndSwap(false, true) {
		return nil
	}
	if c.shared.refs.Add(-1) == 0 {
		c.shared.closeOnce.Do(func() { close(c.shared.closed) })
	}
	return nil
}

// Done 返回协调器退出时关闭的通道
func (c *Client) Done() <-chan struct{} {
	return c.shared.done
}

// ============================================================================
//                              动作 API
// ============================================================================

// StartListening 在指定地址开始监听
func (c *Client) StartListening(ctx context.Context, addr ma.Multiaddr) error {
	slot := newReplySlot[struct{}]()
	_, err := call(ctx, c, &startListeningCmd{addr: addr, reply: slot}, slot)
	return err
}

// Dial 拨号到指定节点
func (c *Client) Dial(ctx context.Context, peer types.PeerID, addr ma.Multiaddr) error {
	slot := newReplySlot[struct{}]()
	_, err := call(ctx, c, &dialCmd{peer: peer, addr: addr, reply: slot}, slot)
	return err
}

// StartProviding 在 DHT 上通告本节点为 key 的提供者
func (c *Client) StartProviding(ctx context.Context, key types.ContentKey) error {
	slot := newReplySlot[struct{}]()
	_, err := call(ctx, c, &startProvidingCmd{key: key, reply: slot}, slot)
	return err
}

// GetProviders 查询 key 的提供者集合
func (c *Client) GetProviders(ctx context.Context, key types.ContentKey) ([]types.PeerID, error) {
	slot := newReplySlot[[]types.PeerID]()
	return call(ctx, c, &getProvidersCmd{key: key, reply: slot}, slot)
}

// RequestContent 向 peer 请求 key 对应的内容
func (c *Client) RequestContent(ctx context.Context, peer types.PeerID, key types.ContentKey) ([]byte, error) {
	slot := newReplySlot[[]byte]()
	return call(ctx, c, &requestContentCmd{peer: peer, key: key, reply: slot}, slot)
}

// RespondContent 对入站请求发送响应
//
// 入队即返回，不等待结果：响应是入站请求的终结动作，之后没有结果可等。
func (c *Client) RespondContent(ctx context.Context, payload []byte, ch engine.ResponseChannel) error {
	return c.submit(ctx, &respondContentCmd{payload: payload, channel: ch})
}

// ============================================================================
//                              提交与等待
// ============================================================================

// call 提交动作并等待其回复槽
func call[T any](ctx context.Context, c *Client, cmd command, slot replySlot[T]) (T, error) {
	var zero T
	if err := c.submit(ctx, cmd); err != nil {
		return zero, err
	}

	select {
	case r, ok := <-slot:
		if !ok {
			return zero, ErrResultLost
		}
		return r.val, r.err
	case <-ctx.Done():
		// 待处理条目保持不变，协调器稍后的投递是无害的空操作
		return zero, ctx.Err()
	case <-c.shared.done:
		// 协调器可能在退出前已经投递
		select {
		case r, ok := <-slot:
			if ok {
				return r.val, r.err
			}
		default:
		}
		return zero, ErrResultLost
	}
}

// submit 将动作放入邮箱，邮箱满时阻塞
func (c *Client) submit(ctx context.Context, cmd command) error {
	if c.released.Load() {
		return ErrMailboxClosed
	}
	select {
	case <-c.shared.closed:
		return ErrMailboxClosed
	case <-c.shared.done:
		return ErrMailboxClosed
	default:
	}

	select {
	case c.shared.mailbox <- cmd:
		return nil
	case <-c.shared.closed:
		return ErrMailboxClosed
	case <-c.shared.done:
		return ErrMailboxClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
