package datasource

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogf/gf/v2/frame/g"
	"golang.org/x/sync/singleflight"

	"github.com/Malowking/sqlgate/core/common"
	"github.com/Malowking/sqlgate/core/errors"
)

// Key 连接缓存键：不同逻辑数据源不会共享连接
func Key(sourceID string, cfg *Config) string {
	return fmt.Sprintf("%s_%s_%s", sourceID, cfg.Host, cfg.Database)
}

// Handle 某个数据源的连接句柄
type Handle struct {
	key      string
	registry *Registry

	mu     sync.RWMutex
	conn   Conn
	closed bool
}

// Key 返回缓存键
func (h *Handle) Key() string {
	return h.key
}

// Live 句柄是否可用
func (h *Handle) Live() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.closed
}

// Close 释放底层会话并从注册表移除，可重复调用
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()

	if h.registry != nil {
		h.registry.forget(h)
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Registry 数据源连接注册表，由编排器持有并向下传递
type Registry struct {
	dialer Dialer
	dials  singleflight.Group // 按键合并建连，不同键互不阻塞

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewRegistry 创建注册表，dialer 为 nil 时使用 gorm
func NewRegistry(dialer Dialer) *Registry {
	if dialer == nil {
		dialer = NewGormDialer()
	}
	return &Registry{
		dialer:  dialer,
		handles: make(map[string]*Handle),
	}
}

// GetOrCreate 返回已缓存的可用句柄，否则建立新连接并缓存
// 同一个键的首次创建只发生一次，并发调用者共享结果；其他键不受影响
func (r *Registry) GetOrCreate(ctx context.Context, sourceID string, cfg *Config) (*Handle, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrDataSourceMissing, "no database configuration provided")
	}
	normalized := *cfg
	normalized.Normalize()
	cfg = &normalized
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseConnect, err, "invalid data source configuration")
	}

	key := Key(sourceID, cfg)
	if h := r.live(key); h != nil {
		return h, nil
	}

	v, err, _ := r.dials.Do(key, func() (interface{}, error) {
		if h := r.live(key); h != nil {
			return h, nil
		}
		g.Log().Debugf(ctx, "Opening data source connection: %s (%s@%s:%d/%s)",
			key, cfg.User, cfg.Host, cfg.Port, cfg.Database)
		conn, err := r.dialer.Dial(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabaseConnect, err, "failed to connect data source")
		}

		h := &Handle{key: key, registry: r, conn: conn}
		r.mu.Lock()
		r.handles[key] = h
		r.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

func (r *Registry) live(key string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[key]; ok && h.Live() {
		return h
	}
	return nil
}

// Get 返回缓存中的句柄
func (r *Registry) Get(key string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[key]
	return h, ok
}

// Len 当前缓存的句柄数
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// CloseAll 关闭全部句柄
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		r.closeHandle(ctx, h)
	}
}

// closeHandle 单个驱动关闭时 panic 不影响其余句柄
func (r *Registry) closeHandle(ctx context.Context, h *Handle) {
	defer common.RecoverPanic(ctx, "close data source "+h.key)
	if err := h.Close(); err != nil {
		g.Log().Warningf(ctx, "Failed to close data source %s: %v", h.key, err)
	}
}

func (r *Registry) forget(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.handles[h.key]; ok && cur == h {
		delete(r.handles, h.key)
	}
}

// Execute 在句柄上执行语句，不重试；失败时句柄保持原状
func Execute(ctx context.Context, h *Handle, sql string) (*QueryResult, error) {
	if h == nil {
		return nil, errors.New(errors.ErrDataSourceMissing, "no database configuration provided")
	}
	h.mu.RLock()
	conn, closed := h.conn, h.closed
	h.mu.RUnlock()
	if closed || conn == nil {
		return nil, errors.Newf(errors.ErrDatabaseQuery, "connection %s is closed", h.key)
	}

	result, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseQuery, err, "query execution failed")
	}
	return result, nil
}
