// Package client 实现网络动作的命令/响应协调层
//
// 调用方通过 Client（Handle）发起动作，不直接接触网络引擎：
//
//	调用方 ──► Client.Xxx() ──► 邮箱（有界，默认容量 1）──► EventLoop ──► engine.Engine
//	   ▲                                                       │
//	   └────────────── 单次回复槽（按关联令牌路由）◄─────────────┘
//
// # 角色
//
//   - Client: 可被任意多个并发调用方使用的句柄，Clone 得到共享同一邮箱的新句柄，
//     全部句柄 Close 后邮箱关闭
//   - EventLoop: 唯一持有引擎与待处理表的协调器，单 goroutine 运行，
//     用一个 select 同时等待邮箱与引擎事件
//
// # 关联协议
//
// 需要异步结果的动作（StartProviding / GetProviders / RequestContent）在引擎签发
// 关联令牌后立即登记到待处理表；匹配的完成事件到达时取出条目并恰好投递一次。
// 没有令牌的引擎事件作为通知原样转发到 Notifications()；
// 携带令牌但没有匹配条目的完成事件被静默丢弃。
//
// # 错误
//
//   - ErrMailboxClosed: 提交时协调器已不可用
//   - ErrResultLost: 回复槽在投递前被放弃（协调器退出）
//   - 引擎错误原样转发，可用 errors.Is 判断
package client
