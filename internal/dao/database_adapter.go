package dao

import (
	"context"
	"fmt"

	"github.com/gogf/gf/v2/util/gconv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Malowking/sqlgate/core/config"
	"github.com/Malowking/sqlgate/core/errors"
	gormModel "github.com/Malowking/sqlgate/internal/model/gorm"
	"github.com/Malowking/sqlgate/nl2sql/datasource"
)

// dataSourceConfig 将结果库配置转换为数据源配置
func dataSourceConfig(cfg config.ResultStoreConfig) (*datasource.Config, error) {
	ds := &datasource.Config{
		Type:     cfg.Type,
		Host:     cfg.Host,
		Port:     gconv.Int(cfg.Port),
		User:     cfg.User,
		Password: cfg.Pass,
		Database: cfg.Name,
		Charset:  cfg.Charset,
	}
	ds.Normalize()
	if err := ds.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseConnect, err, "invalid result store configuration")
	}
	return ds, nil
}

// initDatabase 根据配置初始化数据库连接
func initDatabase(ctx context.Context, cfg config.ResultStoreConfig) (*gorm.DB, error) {
	ds, err := dataSourceConfig(cfg)
	if err != nil {
		return nil, err
	}

	db, err := datasource.OpenGorm(ctx, ds, logger.Warn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseConnect, err, "failed to connect result store")
	}

	// 自动迁移数据库表结构
	if err = gormModel.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database tables: %v", err)
	}
	return db, nil
}
