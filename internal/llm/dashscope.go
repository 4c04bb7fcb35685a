package llm

import (
	"context"
	"log"
	"strings"
)

// DashScope exposes an OpenAI-compatible chat endpoint for the qwen-*
// models, so the provider reuses the go-openai client. Options the
// compatible mode does not accept (top_k, repetition_penalty,
// enable_search) are not sent.
const dashscopeDefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

type DashscopeProvider struct {
	inner *OpenAIProvider
}

func NewDashscopeProvider(apiKey string, baseURL string, model string) (*DashscopeProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ConfigErr("dashscope", "missing api key (set DASHSCOPE_API_KEY or llm.providers.dashscope.api_key)")
	}

	if strings.TrimSpace(baseURL) == "" {
		baseURL = dashscopeDefaultBaseURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "qwen-turbo"
	}

	log.Printf("dashscope: loading model %s with api_key=%s", model, maskKey(apiKey))

	inner := NewOpenAIProvider(apiKey, baseURL, model)
	inner.name = "dashscope"
	return &DashscopeProvider{inner: inner}, nil
}

func (p *DashscopeProvider) Name() string {
	return "dashscope"
}

func (p *DashscopeProvider) Model() string {
	if p == nil {
		return ""
	}
	return p.inner.Model()
}

func (p *DashscopeProvider) Complete(ctx context.Context, req *Request) (*Result, error) {
	if p == nil || p.inner == nil {
		return nil, ConfigErr("dashscope", "nil client")
	}
	return p.inner.Complete(ctx, req)
}

// maskKey keeps the first 8 and last 4 characters of a credential visible.
func maskKey(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + strings.Repeat("*", len(key)-12) + key[len(key)-4:]
}
