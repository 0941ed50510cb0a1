package dao

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	"gorm.io/gorm"

	"github.com/Malowking/sqlgate/core/config"
)

var db *gorm.DB

// InitDB 初始化结果库连接
func InitDB(ctx context.Context, cfg config.ResultStoreConfig) error {
	var err error
	db, err = initDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	g.Log().Infof(ctx, "Result store connected: %s@%s/%s", cfg.Type, cfg.Host, cfg.Name)
	return nil
}

// GetDB 获取数据库实例，未初始化时返回 nil
func GetDB() *gorm.DB {
	return db
}

// CloseDB 关闭结果库连接
func CloseDB() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}
