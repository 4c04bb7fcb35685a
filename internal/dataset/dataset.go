package dataset

import "context"

// Dataset supplies evaluation instances in a uniform multiple-choice shape
// and scores model responses against the expected answer.
type Dataset interface {
	Name() string
	Description() string
	Load(ctx context.Context) ([]Instance, error)
	Evaluate(response string, expected any) (float64, error)
}

// PromptFormatter is an optional interface for datasets with their own
// prompt template. Datasets without it get the generic multiple-choice
// prompt.
type PromptFormatter interface {
	FormatPrompt(inst *Instance) string
}

type Instance struct {
	ID       string
	Question string
	Choices  []string
	Answer   any
	Category string
}
