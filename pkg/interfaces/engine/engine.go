// Package engine 定义网络引擎接口
//
// 网络引擎是协调器驱动的黑盒：传输、DHT、请求响应协议都在引擎内部完成。
// 协调器只通过本包定义的窄接口（动作 + 事件）与引擎交互。
//
// 引擎约定：
//   - 所有方法都不得阻塞调用方；异步结果通过 Events() 返回
//   - 同一个 QueryID / RequestID 恰好产生一个完成事件
//   - 引擎关闭后 Events() 通道被关闭
//   - 引擎的可变状态只由一个协调器访问，方法无需支持并发调用
package engine

import (
	"fmt"

	"github.com/google/uuid"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileshare/pkg/types"
)

// ============================================================================
//                              关联令牌
// ============================================================================

// QueryID DHT 操作（通告/查询）的关联令牌
type QueryID uint64

// String 返回 QueryID 的字符串表示
func (id QueryID) String() string {
	return fmt.Sprintf("q%d", uint64(id))
}

// RequestID 出站内容请求的关联令牌
type RequestID uint64

// String 返回 RequestID 的字符串表示
func (id RequestID) String() string {
	return fmt.Sprintf("r%d", uint64(id))
}

// ResponseChannel 入站请求的回复令牌
//
// 由引擎在 InboundRequest 中签发，观察者用它调用 RespondContent。
// 对协调器而言是不透明值，原样转交给 SendResponse。
type ResponseChannel struct {
	// ID 回复令牌唯一标识
	ID uuid.UUID

	// Peer 发起请求的节点
	Peer types.PeerID
}

// NewResponseChannel 创建新的回复令牌
func NewResponseChannel(peer types.PeerID) ResponseChannel {
	return ResponseChannel{ID: uuid.New(), Peer: peer}
}

// IsZero 检查回复令牌是否为空
func (c ResponseChannel) IsZero() bool {
	return c.ID == uuid.Nil
}

// String 返回回复令牌的字符串表示
func (c ResponseChannel) String() string {
	return c.ID.String()
}

// ============================================================================
//                              Engine 接口
// ============================================================================

// Engine 网络引擎接口
type Engine interface {
	// LocalPeer 返回本地节点 ID
	LocalPeer() types.PeerID

	// Listen 开始监听指定地址（同步返回结果）
	Listen(addr ma.Multiaddr) error

	// Dial 拨号到指定节点（同步返回结果）
	Dial(peer types.PeerID, addr ma.Multiaddr) error

	// StartProviding 在 DHT 上通告本节点为 key 的提供者
	// 完成事件：AdvertiseDone
	StartProviding(key types.ContentKey) QueryID

	// GetProviders 在 DHT 上查询 key 的提供者
	// 完成事件：DiscoverDone
	GetProviders(key types.ContentKey) QueryID

	// SendRequest 向 peer 请求 key 对应的内容
	// 完成事件：RequestDone
	SendRequest(peer types.PeerID, key types.ContentKey) RequestID

	// SendResponse 对入站请求发送响应（无完成事件）
	SendResponse(payload []byte, ch ResponseChannel) error

	// Events 返回引擎事件通道
	Events() <-chan Event

	// Close 关闭引擎
	Close() error
}
