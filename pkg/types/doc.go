// Package types 定义 go-fileshare 的基础类型
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在 Handle、协调器与网络引擎之间传递数据。
//
// # 文件组织
//
//   - ids.go        - PeerID（Base58 外部表示）
//   - content.go    - ContentKey 内容键
//   - multiaddr.go  - 基于 go-multiaddr 的地址辅助函数
//   - errors.go     - 公共错误定义
package types
