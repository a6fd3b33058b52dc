// Package fileshare 提供一个最小的 P2P 内容共享节点
//
// 节点把所有网络动作交给单一协调器（internal/core/client）串行驱动：
// 调用方通过句柄提交动作并等待各自的结果，网络引擎产生的完成事件
// 按关联令牌路由回对应的调用方，其余事件作为通知流交给 Responder。
//
// # 快速开始
//
//	net := memnet.NewNetwork(config.DefaultEngineConfig())
//
//	alice, _ := fileshare.New(fileshare.WithNetwork(net))
//	bob, _ := fileshare.New(fileshare.WithNetwork(net))
//	_ = alice.Start(ctx)
//	_ = bob.Start(ctx)
//	defer alice.Close()
//	defer bob.Close()
//
//	// alice 提供内容
//	_ = alice.Provide(ctx, "hello.txt", []byte("hello"))
//
//	// bob 查找提供者并获取内容
//	data, err := bob.Fetch(ctx, "hello.txt")
//
// # 组件
//
//   - memnet: 进程内网络引擎（地址、Provider 记录、请求响应）
//   - storage: BadgerDB 内容存储
//   - client: 句柄 + 协调器
//   - responder: 用本地存储回答入站请求
package fileshare
