// Package storage 提供本节点所提供内容的存储
//
// 基于 BadgerDB。默认使用内存模式，配置 storage.in_memory=false 后
// 落盘到 ${data_dir}/content.db。
//
// # 键空间
//
//	c/<content key>  → 内容字节
//
// # 使用示例
//
//	store, err := storage.Open(cfg.Storage)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	_ = store.Put("report.pdf", data)
//	data, err := store.Get("report.pdf")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // 本节点不提供该内容
//	}
package storage
