package file_store

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/Malowking/sqlgate/core/config"
)

// InitStorage 根据配置创建报告归档，未启用时返回 nil
func InitStorage(ctx context.Context, cfg config.UploadConfig) (ReportStore, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch StorageType(cfg.Type) {
	case StorageTypeLocal:
		g.Log().Infof(ctx, "Using local storage for reports: %s", cfg.Dir)
		return newLocal(ctx, cfg.Dir)
	default:
		if cfg.Endpoint == "" {
			// 没有配置 rustfs 时退回本地存储
			g.Log().Warningf(ctx, "RustFS not configured, using local storage: %s", cfg.Dir)
			return newLocal(ctx, cfg.Dir)
		}
		store, err := NewRustFSStore(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.BucketName, cfg.SSL)
		if err != nil {
			return nil, err
		}
		g.Log().Infof(ctx, "Using RustFS storage for reports: %s", cfg.Endpoint)
		return store, nil
	}
}

func newLocal(ctx context.Context, dir string) (ReportStore, error) {
	store, err := NewLocalStore(ctx, dir)
	if err != nil {
		return nil, err
	}
	return store, nil
}
