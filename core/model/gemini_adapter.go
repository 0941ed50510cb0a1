package model

import (
	"context"
	"sync"

	"google.golang.org/genai"

	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/nl2sql/common"
	"github.com/Malowking/sqlgate/nl2sql/generator"
)

// contentGenerator 单轮文本生成
type contentGenerator func(ctx context.Context, modelName, text string, temperature float32) (string, error)

// GeminiProvider Google Gemini，提示词和问题合并为一条用户输入
type GeminiProvider struct {
	cfg ProviderConfig

	once     sync.Once
	generate contentGenerator
	initErr  error
}

// NewGeminiProvider 创建 Gemini 提供方，客户端在首次调用时建立
func NewGeminiProvider(cfg ProviderConfig) *GeminiProvider {
	return &GeminiProvider{cfg: cfg}
}

func (p *GeminiProvider) Name() string { return common.ProviderGoogle }

func (p *GeminiProvider) Available() bool { return p.cfg.Enabled }

func (p *GeminiProvider) Generate(ctx context.Context, question, prompt, modelName string) (string, error) {
	if p.cfg.APIKey == "" {
		return "", errors.New(errors.ErrProviderCredentials, "GOOGLE_API_KEY is not set")
	}

	p.once.Do(func() {
		if p.generate != nil {
			return
		}
		p.generate, p.initErr = newGenAIGenerator(ctx, p.cfg)
	})
	if p.initErr != nil {
		return "", errors.Wrap(errors.ErrProviderUnavailable, p.initErr, "Google API error")
	}

	text, err := p.generate(ctx, modelName, generator.ComposePrompt(prompt, question), p.cfg.temperature())
	if err != nil {
		return "", errors.Wrap(errors.ErrLLMCallFailed, err, "Google API error")
	}
	return text, nil
}

func newGenAIGenerator(ctx context.Context, cfg ProviderConfig) (contentGenerator, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, modelName, text string, temperature float32) (string, error) {
		contents := []*genai.Content{
			genai.NewContentFromText(text, genai.RoleUser),
		}
		resp, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{
			Temperature: genai.Ptr(temperature),
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}, nil
}
