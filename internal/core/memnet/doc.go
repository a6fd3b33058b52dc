// Package memnet 提供进程内的网络引擎实现
//
// Network 是一个共享的"网络"：多个 Node 注册在同一个 Network 上，
// 通过它完成监听地址登记、拨号、Provider 记录和请求响应往返。
// 不涉及真实套接字，适合在单进程中演示和测试协调器。
//
// # 架构
//
//	┌──────────────────────── Network ────────────────────────┐
//	│  addrs: multiaddr → Node                                │
//	│  nodes: PeerID → Node                                   │
//	│  providers: ContentKey → {PeerID}   (expirable LRU)     │
//	└───────────┬─────────────────────────────┬───────────────┘
//	            │                             │
//	        ┌───▼───┐   SendRequest      ┌────▼──┐
//	        │ Node A│ ─────────────────▶ │ Node B│
//	        │       │ ◀───────────────── │       │
//	        └───┬───┘   SendResponse     └───┬───┘
//	            │ Events()                   │ Events()
//	            ▼                            ▼
//	       协调器 A                       协调器 B
//
// # 事件
//
// 每个 Node 内部维护一个无界 FIFO，由单独的 goroutine 泵送到 Events()，
// 因此引擎方法从不阻塞调用方，事件严格按产生顺序输出。
//
// 每个 QueryID / RequestID 恰好产生一个完成事件；出站请求在
// EngineConfig.RequestTimeout 后以 engine.ErrRequestTimedOut 完成。
package memnet
