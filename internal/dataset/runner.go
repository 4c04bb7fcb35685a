package dataset

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stellarlinkco/lm-harness/internal/dialogue"
	"github.com/stellarlinkco/lm-harness/internal/llm"
)

// Runner drives every instance of a dataset through its own executor
// invocation. Each instance owns an independent conversation; a failure on
// one instance never touches another's state.
type Runner struct {
	Provider  llm.Provider
	Options   llm.GenerationOptions
	MultiTurn bool

	// ExecOpts tune the executor, mainly for tests.
	ExecOpts []dialogue.ExecutorOption
}

type RunResult struct {
	Model            string             `json:"model"`
	Provider         string             `json:"provider"`
	Dataset          string             `json:"dataset"`
	Score            float64            `json:"score"`
	Accuracy         float64            `json:"accuracy"`
	CategoryAccuracy map[string]float64 `json:"category_accuracy,omitempty"`
	TotalTime        time.Duration      `json:"total_time_ns"`
	Results          []InstanceResult   `json:"results,omitempty"`
}

type InstanceResult struct {
	ID       string        `json:"id"`
	Category string        `json:"category,omitempty"`
	Response string        `json:"response,omitempty"`
	Score    float64       `json:"score"`
	Passed   bool          `json:"passed"`
	Latency  time.Duration `json:"latency_ns"`
	Error    string        `json:"error,omitempty"`
}

func (r *Runner) Run(ctx context.Context, ds Dataset) (*RunResult, error) {
	if r == nil {
		return nil, errors.New("dataset: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("dataset: nil context")
	}
	if r.Provider == nil {
		return nil, errors.New("dataset: nil provider")
	}
	if ds == nil {
		return nil, errors.New("dataset: nil dataset")
	}

	start := time.Now()

	instances, err := ds.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, errors.New("dataset: empty dataset")
	}

	genCfg := llm.ResolveGenerationConfig(r.Options)
	exec := dialogue.NewExecutor(r.Provider, genCfg, r.ExecOpts...)

	out := &RunResult{
		Model:            strings.TrimSpace(r.Provider.Model()),
		Provider:         strings.TrimSpace(r.Provider.Name()),
		Dataset:          strings.TrimSpace(ds.Name()),
		CategoryAccuracy: make(map[string]float64),
		Results:          make([]InstanceResult, 0, len(instances)),
	}

	var sumScore float64
	catSums := make(map[string]float64)
	catCounts := make(map[string]int)

	for i := range instances {
		inst := &instances[i]
		if err := ctx.Err(); err != nil {
			r.finish(out, start, sumScore, catSums, catCounts)
			return out, err
		}

		prompt := formatPrompt(ds, inst)
		turns := dialogue.SplitTurns([]string{prompt}, r.MultiTurn)

		ir := InstanceResult{
			ID:       strings.TrimSpace(inst.ID),
			Category: strings.TrimSpace(inst.Category),
		}

		callStart := time.Now()
		replies, callErr := exec.Run(ctx, turns)
		ir.Latency = time.Since(callStart)

		catCounts[ir.Category]++
		if callErr != nil {
			ir.Error = callErr.Error()
			out.Results = append(out.Results, ir)
			continue
		}

		ir.Response = strings.Join(replies, "\n")
		answer := ""
		if len(replies) > 0 {
			answer = replies[len(replies)-1]
		}

		score, evalErr := ds.Evaluate(answer, inst.Answer)
		if evalErr != nil {
			ir.Error = evalErr.Error()
		}
		ir.Score = score
		ir.Passed = score >= 1.0-1e-9

		sumScore += score
		catSums[ir.Category] += score
		out.Results = append(out.Results, ir)
	}

	r.finish(out, start, sumScore, catSums, catCounts)
	return out, nil
}

func (r *Runner) finish(out *RunResult, start time.Time, sumScore float64, catSums map[string]float64, catCounts map[string]int) {
	out.TotalTime = time.Since(start)
	out.Score = safeAvg(sumScore, len(out.Results))
	out.Accuracy = out.Score
	for cat, n := range catCounts {
		out.CategoryAccuracy[cat] = safeAvg(catSums[cat], n)
	}
}

func safeAvg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sum / float64(n)
}

func formatPrompt(ds Dataset, inst *Instance) string {
	if inst == nil {
		return ""
	}
	if f, ok := ds.(PromptFormatter); ok {
		return f.FormatPrompt(inst)
	}
	if len(inst.Choices) > 0 {
		return formatMCQPrompt(inst.Question, inst.Choices)
	}
	return strings.TrimSpace(inst.Question) + "\n"
}

func formatMCQPrompt(question string, choices []string) string {
	var sb strings.Builder
	sb.WriteString("You are taking a multiple-choice test. Choose the best answer.\n\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n\n")

	for i, c := range choices {
		label := string(rune('A' + i))
		sb.WriteString(label)
		sb.WriteString(". ")
		sb.WriteString(strings.TrimSpace(c))
		sb.WriteByte('\n')
	}

	sb.WriteString("\nReply with just the letter (e.g., A).\n")
	return sb.String()
}
