package model

import (
	"context"
)

// Provider 模型提供方能力：给定问题和提示词生成原始文本
type Provider interface {
	// Name 提供方标识，如 openai / google
	Name() string
	// Available 运行环境中是否可用，不可用的提供方整体跳过
	Available() bool
	// Generate 调用模型，返回原始响应文本
	Generate(ctx context.Context, question, prompt, modelName string) (string, error)
}

// ProviderConfig 单个提供方的配置
type ProviderConfig struct {
	Enabled     bool    `json:"enabled"`
	APIKey      string  `json:"apiKey"`
	BaseURL     string  `json:"baseURL"`
	Temperature float32 `json:"temperature"`
	RPS         float64 `json:"rps"` // 每秒请求数，0 表示不限速
}

// DefaultTemperature 生成 SQL 使用的温度
const DefaultTemperature float32 = 0.1

func (c ProviderConfig) temperature() float32 {
	if c.Temperature <= 0 {
		return DefaultTemperature
	}
	return c.Temperature
}
