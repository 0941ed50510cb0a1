package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogf/gf/v2/container/gmap"

	"github.com/Malowking/sqlgate/nl2sql/common"
)

// Config 数据源连接配置
type Config struct {
	Type     string `json:"type"` // mysql 或 postgresql，默认 mysql
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	Charset  string `json:"charset"`
}

// Normalize 补全默认值
func (c *Config) Normalize() {
	switch strings.ToLower(c.Type) {
	case "", common.DBTypeMySQL:
		c.Type = common.DBTypeMySQL
	case common.DBTypePostgreSQL, "postgres", "pgsql":
		c.Type = common.DBTypePostgreSQL
	}
	if c.Port == 0 {
		switch c.Type {
		case common.DBTypePostgreSQL:
			c.Port = 5432
		default:
			c.Port = 3306
		}
	}
	if c.Charset == "" {
		c.Charset = "utf8mb4"
	}
}

// Validate 检查必填项
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("data source host is required")
	}
	if c.User == "" {
		return fmt.Errorf("data source user is required")
	}
	if c.Database == "" {
		return fmt.Errorf("data source database is required")
	}
	switch c.Type {
	case common.DBTypeMySQL, common.DBTypePostgreSQL:
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// Conn 已建立的底层会话
type Conn interface {
	// Query 执行语句并返回全部行，每行按列顺序保存
	Query(ctx context.Context, sql string) (*QueryResult, error)
	Close() error
}

// Dialer 根据配置建立会话
type Dialer interface {
	Dial(ctx context.Context, cfg *Config) (Conn, error)
}

// QueryResult 查询结果
type QueryResult struct {
	Columns []string
	Rows    []*gmap.ListMap
}

// RowCount 返回行数
func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}
