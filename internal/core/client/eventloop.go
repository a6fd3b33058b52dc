package client

import (
	"context"
	"sync/atomic"

	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/internal/util/logger"
	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
	"github.com/dep2p/go-fileshare/pkg/types"
)

var log = logger.Logger("client")

// ============================================================================
//                              EventLoop - 协调器
// ============================================================================

// EventLoop 协调器
//
// 唯一持有网络引擎与待处理表的执行体。所有对引擎的调用都发生在 Run 的
// goroutine 中，因此引擎与待处理表都不需要加锁。
type EventLoop struct {
	engine engine.Engine

	mailbox <-chan command
	closed  <-chan struct{}
	done    chan struct{}

	// notifyOut 对外通知通道；notifyQueue 暂存尚未被取走的通知，保持引擎顺序
	notifyOut   chan engine.Event
	notifyQueue []engine.Event

	pendingStartProviding *pendingTable[engine.QueryID, struct{}]
	pendingGetProviders   *pendingTable[engine.QueryID, []types.PeerID]
	pendingRequestContent *pendingTable[engine.RequestID, []byte]

	metrics *Metrics
	running atomic.Bool
}

// Option EventLoop 选项
type Option func(*EventLoop)

// WithMetrics 使用指定的指标集
func WithMetrics(m *Metrics) Option {
	return func(l *EventLoop) {
		if m != nil {
			l.metrics = m
		}
	}
}

// New 创建句柄与协调器
//
// 返回的 Client 是第一个句柄；EventLoop 需要调用方以 go loop.Run(ctx) 启动。
// 未被 Run 消费前，邮箱满后提交会阻塞。
func New(eng engine.Engine, cfg config.ClientConfig, opts ...Option) (*Client, *EventLoop) {
	mailboxSize := cfg.MailboxSize
	if mailboxSize < 1 {
		mailboxSize = 1
	}
	notifyBuffer := cfg.NotificationBuffer
	if notifyBuffer < 0 {
		notifyBuffer = 0
	}

	mailbox := make(chan command, mailboxSize)
	closed := make(chan struct{})
	done := make(chan struct{})

	shared := &handleShared{
		mailbox: mailbox,
		closed:  closed,
		done:    done,
	}
	shared.refs.Store(1)

	loop := &EventLoop{
		engine:                eng,
		mailbox:               mailbox,
		closed:                closed,
		done:                  done,
		notifyOut:             make(chan engine.Event, notifyBuffer),
		pendingStartProviding: newPendingTable[engine.QueryID, struct{}](),
		pendingGetProviders:   newPendingTable[engine.QueryID, []types.PeerID](),
		pendingRequestContent: newPendingTable[engine.RequestID, []byte](),
		metrics:               NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(loop)
	}

	return &Client{shared: shared}, loop
}

// Notifications 返回主动通知通道
//
// 通道按引擎产生顺序输出没有关联令牌的事件，协调器退出时关闭。
func (l *EventLoop) Notifications() <-chan engine.Event {
	return l.notifyOut
}

// Done 返回协调器退出时关闭的通道
func (l *EventLoop) Done() <-chan struct{} {
	return l.done
}

// Run 运行协调器直到以下任一条件成立：
//   - 所有句柄已释放（邮箱关闭），且已接收的动作处理完毕
//   - ctx 被取消
//   - 引擎关闭事件通道
//
// 退出时仍在待处理表中的条目全部被放弃，等待方得到 ErrResultLost。
func (l *EventLoop) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		log.Warn("协调器已在运行")
		return
	}
	defer l.shutdown()

	log.Debug("协调器启动", "peer", l.engine.LocalPeer().ShortString())

	events := l.engine.Events()
	for {
		var out chan<- engine.Event
		var head engine.Event
		if len(l.notifyQueue) > 0 {
			out = l.notifyOut
			head = l.notifyQueue[0]
		}

		select {
		case <-ctx.Done():
			log.Debug("协调器上下文取消", "err", ctx.Err())
			l.abandonMailbox()
			return

		case cmd := <-l.mailbox:
			l.handleCommand(cmd)

		case ev, ok := <-events:
			if !ok {
				log.Info("引擎事件通道已关闭，协调器退出")
				l.abandonMailbox()
				return
			}
			l.handleEvent(ev)

		case out <- head:
			l.notifyQueue[0] = nil
			l.notifyQueue = l.notifyQueue[1:]

		case <-l.closed:
			l.drainMailbox()
			log.Debug("邮箱已关闭，协调器退出")
			return
		}
	}
}

// drainMailbox 处理邮箱中已接收的动作
func (l *EventLoop) drainMailbox() {
	for {
		select {
		case cmd := <-l.mailbox:
			l.handleCommand(cmd)
		default:
			return
		}
	}
}

// abandonMailbox 丢弃邮箱中尚未处理的动作
func (l *EventLoop) abandonMailbox() {
	for {
		select {
		case cmd := <-l.mailbox:
			cmd.abandon()
			l.metrics.lost(cmd.kind(), 1)
		default:
			return
		}
	}
}

// shutdown 放弃所有待处理条目并关闭输出
func (l *EventLoop) shutdown() {
	lost := l.pendingStartProviding.abandonAll()
	l.metrics.lost(KindStartProviding, lost)
	n := l.pendingGetProviders.abandonAll()
	l.metrics.lost(KindGetProviders, n)
	lost += n
	n = l.pendingRequestContent.abandonAll()
	l.metrics.lost(KindRequestContent, n)
	lost += n

	l.updatePending()
	if lost > 0 {
		log.Warn("协调器退出时放弃待处理请求", "count", lost)
	}

	l.notifyQueue = nil
	close(l.notifyOut)
	close(l.done)
}

// ============================================================================
//                              动作分发
// ============================================================================

func (l *EventLoop) handleCommand(cmd command) {
	l.metrics.action(cmd.kind())

	switch c := cmd.(type) {
	case *startListeningCmd:
		err := l.engine.Listen(c.addr)
		if err != nil {
			log.Warn("监听失败", "addr", c.addr, "err", err)
		}
		c.reply.resolve(struct{}{}, err)
		l.metrics.result(KindStartListening, err)

	case *dialCmd:
		err := l.engine.Dial(c.peer, c.addr)
		if err != nil {
			log.Debug("拨号失败", "peer", c.peer.ShortString(), "err", err)
		}
		c.reply.resolve(struct{}{}, err)
		l.metrics.result(KindDial, err)

	case *startProvidingCmd:
		id := l.engine.StartProviding(c.key)
		if !l.pendingStartProviding.insert(id, c.reply) {
			l.duplicateToken(c, id.String())
		}

	case *getProvidersCmd:
		id := l.engine.GetProviders(c.key)
		if !l.pendingGetProviders.insert(id, c.reply) {
			l.duplicateToken(c, id.String())
		}

	case *requestContentCmd:
		id := l.engine.SendRequest(c.peer, c.key)
		if !l.pendingRequestContent.insert(id, c.reply) {
			l.duplicateToken(c, id.String())
		}

	case *respondContentCmd:
		if err := l.engine.SendResponse(c.payload, c.channel); err != nil {
			log.Warn("发送响应失败", "channel", c.channel, "err", err)
		}

	default:
		log.Error("未知动作类型", "kind", cmd.kind())
		cmd.abandon()
	}

	l.updatePending()
}

// duplicateToken 引擎重复签发了仍在使用的令牌：保留原条目，放弃新动作
func (l *EventLoop) duplicateToken(cmd command, token string) {
	log.Error("引擎签发了重复的关联令牌", "kind", cmd.kind(), "token", token)
	cmd.abandon()
	l.metrics.lost(cmd.kind(), 1)
}

// ============================================================================
//                              事件路由
// ============================================================================

func (l *EventLoop) handleEvent(ev engine.Event) {
	switch e := ev.(type) {
	case engine.AdvertiseDone:
		if slot, ok := l.pendingStartProviding.take(e.ID); ok {
			slot.resolve(struct{}{}, e.Err)
			l.metrics.result(KindStartProviding, e.Err)
		} else {
			l.discardStale(ev, e.ID.String())
		}

	case engine.DiscoverDone:
		if slot, ok := l.pendingGetProviders.take(e.ID); ok {
			slot.resolve(e.Providers, e.Err)
			l.metrics.result(KindGetProviders, e.Err)
		} else {
			l.discardStale(ev, e.ID.String())
		}

	case engine.RequestDone:
		if slot, ok := l.pendingRequestContent.take(e.ID); ok {
			slot.resolve(e.Payload, e.Err)
			l.metrics.result(KindRequestContent, e.Err)
		} else {
			l.discardStale(ev, e.ID.String())
		}

	default:
		l.notifyQueue = append(l.notifyQueue, ev)
		l.metrics.notifications.Inc()
		return
	}

	l.updatePending()
}

// discardStale 丢弃没有匹配条目的完成事件
func (l *EventLoop) discardStale(ev engine.Event, token string) {
	log.Debug("完成事件无匹配条目，已丢弃", "type", ev.Type(), "token", token)
	l.metrics.stale.Inc()
}

func (l *EventLoop) updatePending() {
	l.metrics.pending.Set(float64(l.pendingLen()))
}

func (l *EventLoop) pendingLen() int {
	return l.pendingStartProviding.len() + l.pendingGetProviders.len() + l.pendingRequestContent.len()
}
