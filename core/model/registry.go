package model

import (
	"context"
	"sync"

	"github.com/gogf/gf/v2/frame/g"
	"golang.org/x/time/rate"
)

// ProviderRegistry 按顺序保存提供方，编排器通过标识查找实现
type ProviderRegistry struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]Provider
}

// NewProviderRegistry 创建空注册表
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]Provider),
	}
}

// Register 注册提供方，rps > 0 时包装限速器；重复注册覆盖但保留原顺序
func (r *ProviderRegistry) Register(p Provider, rps float64) {
	if p == nil {
		return
	}
	if rps > 0 {
		p = &limitedProvider{Provider: p, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.Name()]; !ok {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Get 获取提供方
func (r *ProviderRegistry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names 按注册顺序返回提供方标识
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Available 返回可用提供方标识
func (r *ProviderRegistry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, name := range r.order {
		if r.providers[name].Available() {
			names = append(names, name)
		}
	}
	return names
}

// Count 返回注册的提供方数量
func (r *ProviderRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// limitedProvider 请求前等待令牌
type limitedProvider struct {
	Provider
	limiter *rate.Limiter
}

func (p *limitedProvider) Generate(ctx context.Context, question, prompt, modelName string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.Provider.Generate(ctx, question, prompt, modelName)
}

// BuildRegistry 根据配置创建全部提供方
func BuildRegistry(ctx context.Context, order []string, configs map[string]ProviderConfig) *ProviderRegistry {
	registry := NewProviderRegistry()
	for _, name := range order {
		cfg, ok := configs[name]
		if !ok {
			continue
		}
		p := NewProvider(name, cfg)
		if p == nil {
			g.Log().Warningf(ctx, "Unknown model provider %q, skipped", name)
			continue
		}
		registry.Register(p, cfg.RPS)
	}
	g.Log().Infof(ctx, "Model provider registry built, total providers: %d, available: %v",
		registry.Count(), registry.Available())
	return registry
}
