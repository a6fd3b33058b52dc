package engine

import (
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileshare/pkg/types"
)

// Event 引擎事件
//
// 完成事件携带关联令牌（AdvertiseDone / DiscoverDone / RequestDone），
// 其余事件为主动通知（InboundRequest / ListenAddrAdded / PeerConnected）。
type Event interface {
	// Type 返回事件类型名
	Type() string
}

// 事件类型名
const (
	TypeAdvertiseDone   = "advertise_done"
	TypeDiscoverDone    = "discover_done"
	TypeRequestDone     = "request_done"
	TypeInboundRequest  = "inbound_request"
	TypeListenAddrAdded = "listen_addr_added"
	TypePeerConnected   = "peer_connected"
)

// ============================================================================
//                              完成事件
// ============================================================================

// AdvertiseDone DHT 通告完成
type AdvertiseDone struct {
	ID  QueryID
	Err error
}

// Type 实现 Event
func (AdvertiseDone) Type() string { return TypeAdvertiseDone }

// DiscoverDone DHT 提供者查询完成
type DiscoverDone struct {
	ID        QueryID
	Providers []types.PeerID
	Err       error
}

// Type 实现 Event
func (DiscoverDone) Type() string { return TypeDiscoverDone }

// RequestDone 出站内容请求完成
type RequestDone struct {
	ID      RequestID
	Payload []byte
	Err     error
}

// Type 实现 Event
func (RequestDone) Type() string { return TypeRequestDone }

// ============================================================================
//                              主动通知
// ============================================================================

// InboundRequest 收到入站内容请求，等待 RespondContent
type InboundRequest struct {
	Peer    types.PeerID
	Key     types.ContentKey
	Channel ResponseChannel
}

// Type 实现 Event
func (InboundRequest) Type() string { return TypeInboundRequest }

// ListenAddrAdded 新的本地监听地址生效
type ListenAddrAdded struct {
	Addr ma.Multiaddr
}

// Type 实现 Event
func (ListenAddrAdded) Type() string { return TypeListenAddrAdded }

// PeerConnected 与远端节点的连接建立
type PeerConnected struct {
	Peer     types.PeerID
	Outbound bool
}

// Type 实现 Event
func (PeerConnected) Type() string { return TypePeerConnected }
