package engine

import "errors"

// 引擎错误
//
// 协调器不解释也不重试这些错误，原样转交给调用方。
var (
	// ErrListenFailed 监听失败
	ErrListenFailed = errors.New("listen failed")

	// ErrAddressInUse 地址已被其他节点占用
	ErrAddressInUse = errors.New("address already in use")

	// ErrDialFailed 拨号失败
	ErrDialFailed = errors.New("dial failed")

	// ErrNoProvidersFound 未找到提供者
	ErrNoProvidersFound = errors.New("no providers found")

	// ErrRequestTimedOut 请求超时
	ErrRequestTimedOut = errors.New("request timed out")

	// ErrUnreachable 目标节点不可达
	ErrUnreachable = errors.New("peer unreachable")

	// ErrSendFailed 响应发送失败
	ErrSendFailed = errors.New("send response failed")

	// ErrClosed 引擎已关闭
	ErrClosed = errors.New("engine closed")
)
