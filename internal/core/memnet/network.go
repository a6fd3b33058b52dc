package memnet

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/internal/util/logger"
	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
	"github.com/dep2p/go-fileshare/pkg/types"
)

var log = logger.Logger("memnet")

// 动态端口起点
const firstEphemeralPort = 40000

// providerSet Provider 集合，写时复制
type providerSet map[types.PeerID]struct{}

// Network 进程内网络
type Network struct {
	clock clock.Clock
	cfg   config.EngineConfig

	mu       sync.Mutex
	addrs    map[string]*Node
	nodes    map[types.PeerID]*Node
	nextPort int

	// providers 内部自带锁
	providers *lru.LRU[types.ContentKey, providerSet]
}

// NetworkOption Network 选项
type NetworkOption func(*Network)

// WithClock 使用指定时钟（测试中使用 clock.NewMock）
func WithClock(c clock.Clock) NetworkOption {
	return func(n *Network) {
		if c != nil {
			n.clock = c
		}
	}
}

// NewNetwork 创建进程内网络
func NewNetwork(cfg config.EngineConfig, opts ...NetworkOption) *Network {
	def := config.DefaultEngineConfig()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.ProviderTTL <= 0 {
		cfg.ProviderTTL = def.ProviderTTL
	}
	if cfg.ProviderCacheSize < 1 {
		cfg.ProviderCacheSize = def.ProviderCacheSize
	}
	if cfg.EventBuffer < 0 {
		cfg.EventBuffer = 0
	}

	n := &Network{
		clock:    clock.New(),
		cfg:      cfg,
		addrs:    make(map[string]*Node),
		nodes:    make(map[types.PeerID]*Node),
		nextPort: firstEphemeralPort,
		providers: lru.NewLRU[types.ContentKey, providerSet](
			cfg.ProviderCacheSize, nil, cfg.ProviderTTL.Duration()),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewNode 在网络上创建新节点
//
// 节点身份由新生成的 Ed25519 密钥派生。
func (n *Network) NewNode() (*Node, error) {
	id, priv, err := types.GeneratePeerID()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}

	node := newNode(n, id, priv)

	n.mu.Lock()
	n.nodes[id] = node
	n.mu.Unlock()

	log.Debug("节点加入网络", "peer", id.ShortString())
	return node, nil
}

// Peers 返回网络上所有在线节点
func (n *Network) Peers() []types.PeerID {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]types.PeerID, 0, len(n.nodes))
	for id := range n.nodes {
		out = append(out, id)
	}
	sortPeers(out)
	return out
}

// ============================================================================
//                              地址登记
// ============================================================================

// bind 为节点登记监听地址，/tcp/0 分配动态端口
func (n *Network) bind(node *Node, addr ma.Multiaddr) (ma.Multiaddr, error) {
	if types.IsEmptyMultiaddr(addr) {
		return nil, fmt.Errorf("%w: empty address", engine.ErrListenFailed)
	}
	port, err := addr.ValueForProtocol(ma.P_TCP)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no tcp component", engine.ErrListenFailed, addr)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.nodes[node.id]; !ok {
		return nil, engine.ErrClosed
	}

	if port == "0" {
		addr, err = n.allocate(addr)
		if err != nil {
			return nil, err
		}
	}

	key := addr.String()
	if owner, ok := n.addrs[key]; ok {
		if owner == node {
			return addr, nil
		}
		return nil, fmt.Errorf("%w: %s", engine.ErrAddressInUse, key)
	}
	n.addrs[key] = node
	return addr, nil
}

// allocate 将 /tcp/0 替换为未占用的端口，调用方持有 n.mu
func (n *Network) allocate(addr ma.Multiaddr) (ma.Multiaddr, error) {
	wildcard, err := ma.NewMultiaddr("/tcp/0")
	if err != nil {
		return nil, err
	}
	// 地址本身就是 /tcp/0 时 base 为 nil
	base := addr.Decapsulate(wildcard)

	for {
		port := n.nextPort
		n.nextPort++
		candidate := ma.StringCast(fmt.Sprintf("/tcp/%d", port))
		if base != nil {
			candidate = base.Encapsulate(candidate)
		}
		if _, taken := n.addrs[candidate.String()]; !taken {
			return candidate, nil
		}
	}
}

// lookupAddr 按地址查找节点
func (n *Network) lookupAddr(addr ma.Multiaddr) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.addrs[addr.String()]
}

// lookupPeer 按节点 ID 查找在线节点
func (n *Network) lookupPeer(id types.PeerID) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nodes[id]
}

// remove 注销节点及其全部地址
func (n *Network) remove(node *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.nodes, node.id)
	for key, owner := range n.addrs {
		if owner == node {
			delete(n.addrs, key)
		}
	}
}

// ============================================================================
//                              Provider 记录
// ============================================================================

// addProvider 记录 peer 为 key 的提供者并刷新 TTL
func (n *Network) addProvider(key types.ContentKey, peer types.PeerID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	old, _ := n.providers.Get(key)
	set := make(providerSet, len(old)+1)
	for p := range old {
		set[p] = struct{}{}
	}
	set[peer] = struct{}{}
	n.providers.Add(key, set)
}

// findProviders 返回 key 的提供者，按字节序排序
func (n *Network) findProviders(key types.ContentKey) []types.PeerID {
	set, ok := n.providers.Get(key)
	if !ok || len(set) == 0 {
		return nil
	}
	out := make([]types.PeerID, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sortPeers(out)
	return out
}

func sortPeers(peers []types.PeerID) {
	sort.Slice(peers, func(i, j int) bool {
		return bytes.Compare(peers[i][:], peers[j][:]) < 0
	})
}
