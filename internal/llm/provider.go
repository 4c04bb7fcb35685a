package llm

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider is a single upstream completion capability. Implementations hold
// no conversation state: every call carries the full ordered message
// sequence along with the resolved generation configuration.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req *Request) (*Result, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages []Message
	Config   GenerationConfig
}

type Result struct {
	Content      string
	StopReason   string
	InputTokens  int
	OutputTokens int
}
