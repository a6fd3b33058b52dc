package client

import (
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
	"github.com/dep2p/go-fileshare/pkg/types"
)

// ============================================================================
//                              回复槽
// ============================================================================

// result 回复槽中传递的单个结果
type result[T any] struct {
	val T
	err error
}

// replySlot 单次回复槽
//
// 容量为 1：生产端最多发送一个值，消费端离开后发送也不会阻塞。
// 未发送就关闭表示结果丢失。
type replySlot[T any] chan result[T]

func newReplySlot[T any]() replySlot[T] {
	return make(replySlot[T], 1)
}

// resolve 投递唯一结果
func (s replySlot[T]) resolve(val T, err error) {
	s <- result[T]{val: val, err: err}
	close(s)
}

// abandon 放弃回复槽，等待方观察到 ErrResultLost
func (s replySlot[T]) abandon() {
	close(s)
}

// ============================================================================
//                              动作
// ============================================================================

// 动作类型名，用于日志与指标
const (
	KindStartListening = "start_listening"
	KindDial           = "dial"
	KindStartProviding = "start_providing"
	KindGetProviders   = "get_providers"
	KindRequestContent = "request_content"
	KindRespondContent = "respond_content"
)

// command 邮箱中的动作
//
// 由 Client 创建，入队后归邮箱所有，出队后归 EventLoop 所有直至完成。
type command interface {
	kind() string

	// abandon 动作未被处理就被丢弃时调用
	abandon()
}

type startListeningCmd struct {
	addr  ma.Multiaddr
	reply replySlot[struct{}]
}

func (*startListeningCmd) kind() string { return KindStartListening }
func (c *startListeningCmd) abandon()   { c.reply.abandon() }

type dialCmd struct {
	peer  types.PeerID
	addr  ma.Multiaddr
	reply replySlot[struct{}]
}

func (*dialCmd) kind() string { return KindDial }
func (c *dialCmd) abandon()   { c.reply.abandon() }

type startProvidingCmd struct {
	key   types.ContentKey
	reply replySlot[struct{}]
}

func (*startProvidingCmd) kind() string { return KindStartProviding }
func (c *startProvidingCmd) abandon()   { c.reply.abandon() }

type getProvidersCmd struct {
	key   types.ContentKey
	reply replySlot[[]types.PeerID]
}

func (*getProvidersCmd) kind() string { return KindGetProviders }
func (c *getProvidersCmd) abandon()   { c.reply.abandon() }

type requestContentCmd struct {
	peer  types.PeerID
	key   types.ContentKey
	reply replySlot[[]byte]
}

func (*requestContentCmd) kind() string { return KindRequestContent }
func (c *requestContentCmd) abandon()   { c.reply.abandon() }

// respondContentCmd 没有回复槽：响应本身就是入站请求的终结动作
type respondContentCmd struct {
	payload []byte
	channel engine.ResponseChannel
}

func (*respondContentCmd) kind() string { return KindRespondContent }
func (*respondContentCmd) abandon()     {}
