package storage

import "errors"

var (
	// ErrNotFound 内容不存在
	ErrNotFound = errors.New("storage: content not found")

	// ErrClosed 存储已关闭
	ErrClosed = errors.New("storage: closed")
)

// IsNotFound 检查是否为内容不存在错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
