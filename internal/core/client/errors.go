package client

import "errors"

var (
	// ErrMailboxClosed 邮箱已关闭，协调器不再接收动作
	ErrMailboxClosed = errors.New("client: mailbox closed")

	// ErrResultLost 回复槽在投递结果前被放弃
	ErrResultLost = errors.New("client: result lost")
)
