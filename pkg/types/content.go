package types

// MaxContentKeyLen 内容键最大长度（字节）
const MaxContentKeyLen = 512

// ContentKey 内容键
//
// 标识一份可被提供和获取的内容（通常是文件名），
// 同时作为 DHT provider 记录的键。
type ContentKey string

// String 返回内容键字符串
func (k ContentKey) String() string {
	return string(k)
}

// Validate 校验内容键
func (k ContentKey) Validate() error {
	if k == "" {
		return ErrEmptyContentKey
	}
	if len(k) > MaxContentKeyLen {
		return ErrContentKeyTooLong
	}
	return nil
}
