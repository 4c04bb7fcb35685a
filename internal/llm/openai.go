package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client *openai.Client
	name   string
	model  string
}

func NewOpenAIProvider(apiKey string, baseURL string, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = "gpt-4o"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		name:   "openai",
		model:  m,
	}
}

func (p *OpenAIProvider) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

func (p *OpenAIProvider) Model() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (*Result, error) {
	if p == nil || p.client == nil {
		return nil, ConfigErr("openai", "nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: openai: nil request")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    normalizeOpenAIRole(m.Role),
			Content: m.Content,
		})
	}

	r := openai.ChatCompletionRequest{
		Model:     p.model,
		Messages:  msgs,
		MaxTokens: req.Config.MaxTokens,
	}
	if v := req.Config.Temperature; v != nil {
		r.Temperature = float32(*v)
	}
	if v := req.Config.TopP; v != nil {
		r.TopP = float32(*v)
	}
	if len(req.Config.Stop) > 0 {
		r.Stop = append([]string(nil), req.Config.Stop...)
	}
	if v := req.Config.Seed; v != nil {
		seed := int(*v)
		r.Seed = &seed
	}

	resp, err := p.client.CreateChatCompletion(ctx, r)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, TransientErr(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, TransientErr(p.name, errors.New("empty choices"))
	}

	choice := resp.Choices[0]
	return &Result{
		Content:      choice.Message.Content,
		StopReason:   string(choice.FinishReason),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func normalizeOpenAIRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant:
		return role
	default:
		return openai.ChatMessageRoleUser
	}
}
