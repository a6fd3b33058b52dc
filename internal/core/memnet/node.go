package memnet

import (
	"crypto/ed25519"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
	"github.com/dep2p/go-fileshare/pkg/types"
)

// 编译时检查
var _ engine.Engine = (*Node)(nil)

// outboundRequest 本节点发出、尚未完成的请求
type outboundRequest struct {
	target types.PeerID
	timer  *clock.Timer
}

// inboundRequest 其他节点发来、尚未响应的请求
type inboundRequest struct {
	from *Node
	id   engine.RequestID
}

// Node 进程内网络节点，实现 engine.Engine
type Node struct {
	net  *Network
	id   types.PeerID
	priv ed25519.PrivateKey

	nextQuery   atomic.Uint64
	nextRequest atomic.Uint64

	mu          sync.Mutex
	listenAddrs []ma.Multiaddr
	connected   map[types.PeerID]bool
	outbound    map[engine.RequestID]*outboundRequest
	inbound     map[uuid.UUID]inboundRequest
	queue       []engine.Event
	closed      bool

	wake      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once
	events    chan engine.Event
	pumpDone  chan struct{}
}

func newNode(net *Network, id types.PeerID, priv ed25519.PrivateKey) *Node {
	n := &Node{
		net:       net,
		id:        id,
		priv:      priv,
		connected: make(map[types.PeerID]bool),
		outbound:  make(map[engine.RequestID]*outboundRequest),
		inbound:   make(map[uuid.UUID]inboundRequest),
		wake:      make(chan struct{}, 1),
		closing:   make(chan struct{}),
		events:    make(chan engine.Event, net.cfg.EventBuffer),
		pumpDone:  make(chan struct{}),
	}
	go n.pump()
	return n
}

// LocalPeer 返回本节点 ID
func (n *Node) LocalPeer() types.PeerID {
	return n.id
}

// PublicKey 返回本节点公钥
func (n *Node) PublicKey() ed25519.PublicKey {
	return n.priv.Public().(ed25519.PublicKey)
}

// ListenAddrs 返回已登记的监听地址
func (n *Node) ListenAddrs() []ma.Multiaddr {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ma.Multiaddr, len(n.listenAddrs))
	copy(out, n.listenAddrs)
	return out
}

// Events 返回引擎事件通道，Close 后关闭
func (n *Node) Events() <-chan engine.Event {
	return n.events
}

// ============================================================================
//                              同步动作
// ============================================================================

// Listen 登记监听地址
func (n *Node) Listen(addr ma.Multiaddr) error {
	bound, err := n.net.bind(n, addr)
	if err != nil {
		log.Debug("监听失败", "peer", n.id.ShortString(), "addr", addr, "err", err)
		return err
	}

	n.mu.Lock()
	n.listenAddrs = append(n.listenAddrs, bound)
	n.mu.Unlock()

	log.Info("开始监听", "peer", n.id.ShortString(), "addr", bound)
	n.emit(engine.ListenAddrAdded{Addr: bound})
	return nil
}

// Dial 连接到指定节点
//
// addr 为空时按节点 ID 查找；否则地址必须已被 peer 登记。
func (n *Node) Dial(peer types.PeerID, addr ma.Multiaddr) error {
	if peer == n.id {
		return fmt.Errorf("%w: cannot dial self", engine.ErrDialFailed)
	}

	var remote *Node
	if types.IsEmptyMultiaddr(addr) {
		remote = n.net.lookupPeer(peer)
	} else {
		remote = n.net.lookupAddr(addr)
	}
	if remote == nil {
		return fmt.Errorf("%w: no listener for %s at %v", engine.ErrDialFailed, peer.ShortString(), addr)
	}
	if !peer.IsEmpty() && remote.id != peer {
		return fmt.Errorf("%w: %v belongs to %s, not %s",
			engine.ErrDialFailed, addr, remote.id.ShortString(), peer.ShortString())
	}

	if !n.markConnected(remote.id) {
		return nil
	}
	n.emit(engine.PeerConnected{Peer: remote.id, Outbound: true})
	if remote.markConnected(n.id) {
		remote.emit(engine.PeerConnected{Peer: n.id, Outbound: false})
	}
	return nil
}

// markConnected 记录连接，已连接时返回 false
func (n *Node) markConnected(peer types.PeerID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || n.connected[peer] {
		return false
	}
	n.connected[peer] = true
	return true
}

// ============================================================================
//                              DHT 操作
// ============================================================================

// StartProviding 通告本节点为 key 的提供者
func (n *Node) StartProviding(key types.ContentKey) engine.QueryID {
	id := engine.QueryID(n.nextQuery.Add(1))
	n.net.addProvider(key, n.id)
	n.emit(engine.AdvertiseDone{ID: id})
	return id
}

// GetProviders 查询 key 的提供者
func (n *Node) GetProviders(key types.ContentKey) engine.QueryID {
	id := engine.QueryID(n.nextQuery.Add(1))
	providers := n.net.findProviders(key)
	if len(providers) == 0 {
		n.emit(engine.DiscoverDone{ID: id, Err: fmt.Errorf("%w: %s", engine.ErrNoProvidersFound, key)})
		return id
	}
	n.emit(engine.DiscoverDone{ID: id, Providers: providers})
	return id
}

// ============================================================================
//                              请求响应
// ============================================================================

// SendRequest 向 peer 请求 key 对应的内容
func (n *Node) SendRequest(peer types.PeerID, key types.ContentKey) engine.RequestID {
	id := engine.RequestID(n.nextRequest.Add(1))

	target := n.net.lookupPeer(peer)
	if target == nil {
		n.emit(engine.RequestDone{ID: id, Err: fmt.Errorf("%w: %s", engine.ErrUnreachable, peer.ShortString())})
		return id
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return id
	}
	n.outbound[id] = &outboundRequest{
		target: peer,
		timer: n.net.clock.AfterFunc(n.net.cfg.RequestTimeout.Duration(), func() {
			n.completeRequest(id, nil, engine.ErrRequestTimedOut)
		}),
	}
	n.mu.Unlock()

	ch := engine.NewResponseChannel(n.id)
	if !target.acceptInbound(n, id, key, ch) {
		n.completeRequest(id, nil, fmt.Errorf("%w: %s", engine.ErrUnreachable, peer.ShortString()))
	}
	return id
}

// acceptInbound 登记入站请求并通知观察者
func (n *Node) acceptInbound(from *Node, id engine.RequestID, key types.ContentKey, ch engine.ResponseChannel) bool {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return false
	}
	n.inbound[ch.ID] = inboundRequest{from: from, id: id}
	n.mu.Unlock()

	n.emit(engine.InboundRequest{Peer: from.id, Key: key, Channel: ch})
	return true
}

// SendResponse 对入站请求发送响应
//
// 令牌未知、已被使用，或请求方已不再等待时返回 engine.ErrSendFailed。
func (n *Node) SendResponse(payload []byte, ch engine.ResponseChannel) error {
	n.mu.Lock()
	in, ok := n.inbound[ch.ID]
	delete(n.inbound, ch.ID)
	n.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: unknown channel %s", engine.ErrSendFailed, ch)
	}

	data := make([]byte, len(payload))
	copy(data, payload)
	if !in.from.completeRequest(in.id, data, nil) {
		return fmt.Errorf("%w: requester %s no longer waiting", engine.ErrSendFailed, in.from.id.ShortString())
	}
	return nil
}

// completeRequest 完成出站请求，每个请求只生效一次
func (n *Node) completeRequest(id engine.RequestID, payload []byte, err error) bool {
	n.mu.Lock()
	req, ok := n.outbound[id]
	if ok {
		delete(n.outbound, id)
		req.timer.Stop()
	}
	n.mu.Unlock()

	if !ok {
		return false
	}
	if err != nil {
		log.Debug("请求失败", "peer", n.id.ShortString(), "request", id, "target", req.target.ShortString(), "err", err)
	}
	n.emit(engine.RequestDone{ID: id, Payload: payload, Err: err})
	return true
}

// ============================================================================
//                              事件泵
// ============================================================================

// emit 追加事件，不阻塞
func (n *Node) emit(ev engine.Event) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.queue = append(n.queue, ev)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *Node) pop() (engine.Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) == 0 {
		return nil, false
	}
	ev := n.queue[0]
	n.queue[0] = nil
	n.queue = n.queue[1:]
	return ev, true
}

// pump 按顺序把事件送入 events，节点关闭时关闭 events
func (n *Node) pump() {
	defer close(n.pumpDone)
	defer close(n.events)

	for {
		ev, ok := n.pop()
		if !ok {
			select {
			case <-n.wake:
				continue
			case <-n.closing:
				return
			}
		}
		select {
		case n.events <- ev:
		case <-n.closing:
			return
		}
	}
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭节点
//
// 节点从网络注销，其他节点发给本节点且尚未响应的请求以
// engine.ErrUnreachable 完成，本节点未投递的事件被丢弃，Events() 随后关闭。
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		n.net.remove(n)

		n.mu.Lock()
		n.closed = true
		n.queue = nil
		for id, req := range n.outbound {
			req.timer.Stop()
			delete(n.outbound, id)
		}
		inbound := n.inbound
		n.inbound = make(map[uuid.UUID]inboundRequest)
		n.mu.Unlock()

		close(n.closing)
		<-n.pumpDone

		for _, in := range inbound {
			in.from.completeRequest(in.id, nil, fmt.Errorf("%w: %s closed", engine.ErrUnreachable, n.id.ShortString()))
		}
		log.Info("节点已关闭", "peer", n.id.ShortString())
	})
	return nil
}
