package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gogf/gf/v2/container/gmap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Malowking/sqlgate/nl2sql/common"
)

// GormDialer 基于 gorm 的 MySQL / PostgreSQL 连接器
type GormDialer struct {
	LogLevel logger.LogLevel
}

// NewGormDialer 创建连接器，默认不输出 SQL 日志
func NewGormDialer() *GormDialer {
	return &GormDialer{LogLevel: logger.Silent}
}

// BuildDSN 构建数据库连接字符串
func BuildDSN(cfg *Config) (string, error) {
	switch cfg.Type {
	case common.DBTypeMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.Charset), nil
	case common.DBTypePostgreSQL:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=Asia/Shanghai",
			cfg.Host, cfg.User, cfg.Password, cfg.Database, cfg.Port), nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Dial 打开连接并做一次 Ping
func (d *GormDialer) Dial(ctx context.Context, cfg *Config) (Conn, error) {
	db, err := OpenGorm(ctx, cfg, d.LogLevel)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	return &gormConn{db: db, sqlDB: sqlDB}, nil
}

// OpenGorm 按配置打开 gorm 连接，设置连接池并 Ping
// 打开阶段不访问数据库，唯一的网络往返是受 ctx 约束的 PingContext
func OpenGorm(ctx context.Context, cfg *Config, level logger.LogLevel) (*gorm.DB, error) {
	dialector, err := newDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, newGormConfig(level))
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

func newGormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:               logger.Default.LogMode(level),
		DisableAutomaticPing: true,
	}
}

func newDialector(cfg *Config) (gorm.Dialector, error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.Type {
	case common.DBTypePostgreSQL:
		return postgres.Open(dsn), nil
	default:
		// 版本探测会发起不带 ctx 的查询
		return mysql.New(mysql.Config{DSN: dsn, SkipInitializeWithVersion: true}), nil
	}
}

type gormConn struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

func (c *gormConn) Query(ctx context.Context, query string) (*QueryResult, error) {
	rows, err := c.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (c *gormConn) Close() error {
	return c.sqlDB.Close()
}

// rowScanner 便于测试替换 *sql.Rows
type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanRows 读取全部行，[]byte 转为字符串
func scanRows(rows rowScanner) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &QueryResult{
		Columns: columns,
		Rows:    make([]*gmap.ListMap, 0),
	}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := gmap.NewListMap()
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row.Set(col, string(b))
			} else {
				row.Set(col, values[i])
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
