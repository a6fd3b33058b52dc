package storage

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-fileshare/config"
)

// Params Storage 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回 Storage Fx 模块
//
// 提供:
//   - *Store: 内容存储
//
// 生命周期:
//   - OnStop: 关闭存储
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideStore),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStore 按统一配置打开内容存储
func ProvideStore(p Params) (*Store, error) {
	cfg := config.DefaultStorageConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Storage
	}
	return Open(cfg)
}

func registerLifecycle(lc fx.Lifecycle, store *Store) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			log.Info("正在关闭内容存储")
			if err := store.Close(); err != nil {
				log.Warn("内容存储关闭失败", "error", err)
				return err
			}
			return nil
		},
	})
}

// 模块元信息常量
const (
	Version     = "1.0.0"
	Name        = "storage"
	Description = "内容存储模块，基于 BadgerDB 保存本节点提供的内容"
)
