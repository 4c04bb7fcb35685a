package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/stellarlinkco/lm-harness/internal/claude"
)

type ClaudeProvider struct {
	client *claude.Client
	model  string
}

func NewClaudeProvider(apiKey string, baseURL string, model string) *ClaudeProvider {
	opts := make([]claude.Option, 0, 2)
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, claude.WithBaseURL(v))
	}
	model = strings.TrimSpace(model)
	if model != "" {
		opts = append(opts, claude.WithModel(model))
	}
	c := claude.NewClient(strings.TrimSpace(apiKey), opts...)
	return &ClaudeProvider{
		client: c,
		model:  c.ModelName(),
	}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

func (p *ClaudeProvider) Model() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *ClaudeProvider) Complete(ctx context.Context, req *Request) (*Result, error) {
	if p == nil || p.client == nil {
		return nil, ConfigErr("claude", "nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: claude: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: claude: nil request")
	}

	msgs := make([]claude.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := strings.TrimSpace(m.Role)
		if role == "" {
			role = RoleUser
		}
		msgs = append(msgs, claude.Message{Role: role, Content: m.Content})
	}

	cReq := &claude.Request{
		Messages:      msgs,
		MaxTokens:     req.Config.MaxTokens,
		Temperature:   req.Config.Temperature,
		TopP:          req.Config.TopP,
		TopK:          req.Config.TopK,
		StopSequences: req.Config.Stop,
	}

	resp, err := p.client.Complete(ctx, cReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var cfgErr *Error
		if errors.As(err, &cfgErr) && cfgErr.Kind == ErrConfig {
			return nil, err
		}
		if claude.IsAuthConfigError(err) {
			return nil, ConfigErr("claude", err.Error())
		}
		return nil, TransientErr("claude", err)
	}
	if resp == nil {
		return nil, TransientErr("claude", errors.New("nil response"))
	}

	return &Result{
		Content:      claude.Text(resp),
		StopReason:   resp.StopReason,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
