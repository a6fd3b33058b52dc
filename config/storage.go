package config

import (
	"fmt"
	"path/filepath"
)

// StorageConfig 内容存储配置
//
// 提供的内容保存在 BadgerDB 中：
//
//	${DataDir}/
//	└── content.db/
type StorageConfig struct {
	// DataDir 数据目录路径
	DataDir string `json:"data_dir"`

	// InMemory 仅使用内存存储（不落盘）
	InMemory bool `json:"in_memory"`

	// SyncWrites 每次写入后同步到磁盘
	SyncWrites bool `json:"sync_writes"`
}

// DefaultStorageConfig 返回默认的存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:  "./data",
		InMemory: true,
	}
}

// Validate 验证存储配置
func (c *StorageConfig) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return fmt.Errorf("storage: data_dir cannot be empty unless in_memory is set")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c *StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "content.db")
}
