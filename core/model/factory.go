package model

import (
	"github.com/Malowking/sqlgate/nl2sql/common"
)

// NewProvider 根据标识创建提供方，未知标识返回 nil
func NewProvider(name string, cfg ProviderConfig) Provider {
	switch name {
	case common.ProviderOpenAI:
		return NewOpenAIProvider(cfg)
	case common.ProviderGoogle:
		return NewGeminiProvider(cfg)
	case common.ProviderQwen:
		return NewQwenProvider(cfg)
	case common.ProviderCompatible:
		return NewCompatibleProvider(cfg)
	default:
		return nil
	}
}
