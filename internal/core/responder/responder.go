// Package responder 消费协调器的通知流，对入站内容请求作出响应
//
// 对每个 engine.InboundRequest，从内容存储读取对应内容并通过
// Client.RespondContent 回复。本节点不提供的内容只记录日志、不回复，
// 请求方会在引擎超时后得到 engine.ErrRequestTimedOut。
//
// 其他通知（ListenAddrAdded、PeerConnected 等）记录日志后交给可选的
// NotificationHandler。
package responder

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dep2p/go-fileshare/internal/core/client"
	"github.com/dep2p/go-fileshare/internal/util/logger"
	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
	"github.com/dep2p/go-fileshare/pkg/types"
)

var log = logger.Logger("responder")

// ContentSource 内容来源
type ContentSource interface {
	Get(key types.ContentKey) ([]byte, error)
}

// NotificationHandler 接收非请求类通知的回调
//
// 在 Responder 的 goroutine 中同步调用，不应长时间阻塞。
type NotificationHandler func(ev engine.Event)

// 请求处理结果
const (
	outcomeServed  = "served"
	outcomeMissing = "missing"
	outcomeError   = "error"
)

// Responder 入站请求响应者
type Responder struct {
	handle        *client.Client
	notifications <-chan engine.Event
	source        ContentSource
	handler       NotificationHandler

	requests *prometheus.CounterVec
	done     chan struct{}
}

// New 创建 Responder
//
// handle 归 Responder 所有，Run 返回时释放。
func New(handle *client.Client, notifications <-chan engine.Event, source ContentSource,
	handler NotificationHandler, reg prometheus.Registerer) *Responder {
	return &Responder{
		handle:        handle,
		notifications: notifications,
		source:        source,
		handler:       handler,
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "fileshare",
			Subsystem: "responder",
			Name:      "inbound_requests_total",
			Help:      "Inbound content requests handled, by outcome.",
		}, []string{"outcome"}),
		done: make(chan struct{}),
	}
}

// Done 返回 Run 退出时关闭的通道
func (r *Responder) Done() <-chan struct{} {
	return r.done
}

// Run 处理通知直到通知流关闭或 ctx 取消
func (r *Responder) Run(ctx context.Context) {
	defer close(r.done)
	defer func() { _ = r.handle.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.notifications:
			if !ok {
				log.Debug("通知流已关闭")
				return
			}
			r.dispatch(ctx, ev)
		}
	}
}

func (r *Responder) dispatch(ctx context.Context, ev engine.Event) {
	switch e := ev.(type) {
	case engine.InboundRequest:
		r.serve(ctx, e)
	case engine.ListenAddrAdded:
		log.Info("监听地址已添加", "addr", e.Addr)
		r.forward(ev)
	case engine.PeerConnected:
		log.Debug("节点已连接", "peer", e.Peer.ShortString(), "outbound", e.Outbound)
		r.forward(ev)
	default:
		log.Debug("收到通知", "type", ev.Type())
		r.forward(ev)
	}
}

func (r *Responder) serve(ctx context.Context, req engine.InboundRequest) {
	data, err := r.source.Get(req.Key)
	if err != nil {
		log.Info("无法提供请求的内容", "key", req.Key, "peer", req.Peer.ShortString(), "err", err)
		r.requests.WithLabelValues(outcomeMissing).Inc()
		return
	}

	if err := r.handle.RespondContent(ctx, data, req.Channel); err != nil {
		log.Warn("提交响应失败", "key", req.Key, "peer", req.Peer.ShortString(), "err", err)
		r.requests.WithLabelValues(outcomeError).Inc()
		return
	}
	log.Debug("已响应内容请求", "key", req.Key, "peer", req.Peer.ShortString(), "bytes", len(data))
	r.requests.WithLabelValues(outcomeServed).Inc()
}

func (r *Responder) forward(ev engine.Event) {
	if r.handler != nil {
		r.handler(ev)
	}
}
