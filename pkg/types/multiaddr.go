package types

import (
	"fmt"

	ma "github.com/multiformats/go-multiaddr"
)

// ParseMultiaddr 解析 multiaddr 字符串
//
// 仅接受 multiaddr 格式输入（以 "/" 开头），例如 /ip4/127.0.0.1/tcp/4001。
func ParseMultiaddr(s string) (ma.Multiaddr, error) {
	if s == "" {
		return nil, ErrEmptyMultiaddr
	}
	addr, err := ma.NewMultiaddr(s)
	if err != nil {
		return nil, fmt.Errorf("parse multiaddr %q: %w", s, err)
	}
	return addr, nil
}

// ParseMultiaddrs 批量解析 multiaddr
func ParseMultiaddrs(ss []string) ([]ma.Multiaddr, error) {
	addrs := make([]ma.Multiaddr, 0, len(ss))
	for _, s := range ss {
		addr, err := ParseMultiaddr(s)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// IsEmptyMultiaddr 检查地址是否为空
func IsEmptyMultiaddr(addr ma.Multiaddr) bool {
	return addr == nil || len(addr.Bytes()) == 0
}
