package model

import (
	"context"
	"strings"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/sashabaranov/go-openai"

	"github.com/Malowking/sqlgate/core/client"
	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/nl2sql/common"
)

type chatCompleter interface {
	ChatCompletion(ctx context.Context, req client.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}

// OpenAIProvider 通过 chat/completions 调用 OpenAI
type OpenAIProvider struct {
	cfg    ProviderConfig
	client chatCompleter
}

// NewOpenAIProvider 创建 OpenAI 提供方
func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	p := &OpenAIProvider{cfg: cfg}
	if cfg.APIKey != "" {
		p.client = client.NewOpenAIClient(cfg.APIKey, cfg.BaseURL)
	}
	return p
}

func (p *OpenAIProvider) Name() string { return common.ProviderOpenAI }

func (p *OpenAIProvider) Available() bool { return p.cfg.Enabled }

// Generate 以 system + user 两条消息请求补全
// 模型不接受自定义 temperature 时去掉该参数重新请求一次
func (p *OpenAIProvider) Generate(ctx context.Context, question, prompt, modelName string) (string, error) {
	if p.client == nil {
		return "", errors.New(errors.ErrProviderCredentials, "OPENAI_API_KEY is not set")
	}

	req := client.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: p.cfg.temperature(),
	}

	resp, err := p.client.ChatCompletion(ctx, req)
	if err != nil && rejectsTemperature(err) {
		g.Log().Infof(ctx, "Model %s rejected custom temperature, using model default", modelName)
		req.Temperature = 0
		resp, err = p.client.ChatCompletion(ctx, req)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrLLMCallFailed, err, "OpenAI API error")
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrLLMCallFailed, "OpenAI API error: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func rejectsTemperature(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "temperature") || strings.Contains(msg, "unsupported_value")
}
