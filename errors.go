package fileshare

import (
	"errors"

	"github.com/dep2p/go-fileshare/internal/core/client"
	"github.com/dep2p/go-fileshare/internal/core/storage"
	"github.com/dep2p/go-fileshare/pkg/interfaces/engine"
)

// 节点生命周期错误
var (
	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("node already started")

	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("node closed")
)

// 内容获取错误
var (
	// ErrFetchFailed 所有提供者都未能返回内容
	ErrFetchFailed = errors.New("fetch failed")

	// ErrContentNotFound 本地存储中没有该内容
	ErrContentNotFound = storage.ErrNotFound

	// ErrNoProvidersFound 网络上没有该内容的提供者
	ErrNoProvidersFound = engine.ErrNoProvidersFound
)

// 协调器错误
var (
	// ErrMailboxClosed 协调器已停止接收动作
	ErrMailboxClosed = client.ErrMailboxClosed

	// ErrResultLost 动作已被接收，但协调器退出前没有产生结果
	ErrResultLost = client.ErrResultLost
)
