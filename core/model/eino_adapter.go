package model

import (
	"context"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/nl2sql/common"
)

// DashScopeBaseURL 通义千问 OpenAI 兼容模式地址
const DashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

type chatModelFactory func(ctx context.Context, cfg ProviderConfig, modelName string) (einoModel.BaseChatModel, error)

// EinoProvider 基于 eino ChatModel 的提供方，按模型名缓存实例
type EinoProvider struct {
	name     string
	keyEnv   string
	cfg      ProviderConfig
	newModel chatModelFactory

	mu     sync.Mutex
	models map[string]einoModel.BaseChatModel
}

// NewQwenProvider 通义千问（DashScope）
func NewQwenProvider(cfg ProviderConfig) *EinoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DashScopeBaseURL
	}
	return &EinoProvider{
		name:     common.ProviderQwen,
		keyEnv:   "DASHSCOPE_API_KEY",
		cfg:      cfg,
		newModel: newQwenChatModel,
		models:   make(map[string]einoModel.BaseChatModel),
	}
}

// NewCompatibleProvider 任意 OpenAI 兼容接口（vLLM、Ollama、DeepSeek 等）
func NewCompatibleProvider(cfg ProviderConfig) *EinoProvider {
	return &EinoProvider{
		name:     common.ProviderCompatible,
		keyEnv:   "COMPATIBLE_API_KEY",
		cfg:      cfg,
		newModel: newOpenAIChatModel,
		models:   make(map[string]einoModel.BaseChatModel),
	}
}

func (p *EinoProvider) Name() string { return p.name }

func (p *EinoProvider) Available() bool { return p.cfg.Enabled }

func (p *EinoProvider) Generate(ctx context.Context, question, prompt, modelName string) (string, error) {
	if p.cfg.APIKey == "" {
		return "", errors.Newf(errors.ErrProviderCredentials, "%s is not set", p.keyEnv)
	}

	cm, err := p.chatModel(ctx, modelName)
	if err != nil {
		return "", errors.Wrap(errors.ErrProviderUnavailable, err, "failed to create chat model")
	}

	msg, err := cm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(prompt),
		schema.UserMessage(question),
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrLLMCallFailed, err, p.name+" API error")
	}
	if msg == nil {
		return "", errors.Newf(errors.ErrLLMCallFailed, "%s API error: empty response", p.name)
	}
	return msg.Content, nil
}

func (p *EinoProvider) chatModel(ctx context.Context, modelName string) (einoModel.BaseChatModel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cm, ok := p.models[modelName]; ok {
		return cm, nil
	}
	cm, err := p.newModel(ctx, p.cfg, modelName)
	if err != nil {
		return nil, err
	}
	p.models[modelName] = cm
	return cm, nil
}

func newQwenChatModel(ctx context.Context, cfg ProviderConfig, modelName string) (einoModel.BaseChatModel, error) {
	temperature := cfg.temperature()
	return qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       modelName,
		Temperature: &temperature,
	})
}

func newOpenAIChatModel(ctx context.Context, cfg ProviderConfig, modelName string) (einoModel.BaseChatModel, error) {
	temperature := cfg.temperature()
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       modelName,
		Temperature: &temperature,
	})
}
