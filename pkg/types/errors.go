package types

import "errors"

// ============================================================================
//                              ID 相关错误
// ============================================================================

var (
	// ErrEmptyPeerID 空节点 ID
	ErrEmptyPeerID = errors.New("empty peer ID")

	// ErrInvalidPeerID 无效的节点 ID
	ErrInvalidPeerID = errors.New("invalid peer ID: must be Base58 of 32 bytes")
)

// ============================================================================
//                              内容与地址错误
// ============================================================================

var (
	// ErrEmptyContentKey 空内容键
	ErrEmptyContentKey = errors.New("empty content key")

	// ErrContentKeyTooLong 内容键过长
	ErrContentKeyTooLong = errors.New("content key too long")

	// ErrEmptyMultiaddr 空地址
	ErrEmptyMultiaddr = errors.New("empty multiaddr")
)
