package dialogue

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/stellarlinkco/lm-harness/internal/llm"
)

const (
	// DefaultMaxRetries bounds the number of whole-conversation attempts.
	DefaultMaxRetries = 10
	// DefaultBackoff is the fixed sleep between failed rounds. No growth,
	// no jitter.
	DefaultBackoff = time.Second
)

// Executor drives an ordered sequence of turn prompts through a provider.
// A round submits every turn in order, threading the growing conversation
// into each call; any call failure abandons the round and the next attempt
// restarts from an empty conversation. Either every turn gets exactly one
// reply, in order, or the run fails as a whole.
//
// An Executor holds no per-run state and may be reused; each Run owns its
// own conversation. One Run issues one call at a time.
type Executor struct {
	provider   llm.Provider
	config     llm.GenerationConfig
	maxRetries int
	backoff    time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
	logf  func(format string, args ...any)
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int) ExecutorOption {
	return func(e *Executor) {
		if e == nil || n <= 0 {
			return
		}
		e.maxRetries = n
	}
}

// WithBackoff overrides the fixed delay between failed rounds.
func WithBackoff(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if e == nil || d < 0 {
			return
		}
		e.backoff = d
	}
}

// NewExecutor builds an Executor around a provider and a resolved
// generation config.
func NewExecutor(provider llm.Provider, cfg llm.GenerationConfig, opts ...ExecutorOption) *Executor {
	e := &Executor{
		provider:   provider,
		config:     cfg,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		sleep:      sleepWithContext,
		logf:       log.Printf,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Run submits the turn prompts and returns one reply per turn, in
// submission order. Transient failures trigger a whole-conversation
// restart after the backoff until the retry budget is exhausted, at which
// point a retry-exhausted error wrapping the last cause is returned.
func (e *Executor) Run(ctx context.Context, turns []string) ([]string, error) {
	if e == nil {
		return nil, errors.New("dialogue: nil executor")
	}
	if ctx == nil {
		return nil, errors.New("dialogue: nil context")
	}
	if e.provider == nil {
		return nil, llm.ConfigErr("", "dialogue: nil provider")
	}
	if len(turns) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		replies, err := e.runRound(ctx, turns)
		if err == nil {
			return replies, nil
		}
		if !llm.IsRetryable(err) {
			return nil, err
		}

		lastErr = err
		e.logf("dialogue: round failed: %v", err)
		e.logf("dialogue: retrying (%d/%d)", attempt+1, e.maxRetries)
		if sleepErr := e.sleep(ctx, e.backoff); sleepErr != nil {
			return nil, sleepErr
		}
	}

	return nil, llm.RetryExhaustedErr(e.provider.Name(), e.maxRetries, lastErr)
}

// runRound attempts the full turn sequence once against a fresh
// conversation. The message count never exceeds twice the turns issued,
// and every assistant message directly follows the user message it
// answers.
func (e *Executor) runRound(ctx context.Context, turns []string) ([]string, error) {
	messages := make([]llm.Message, 0, 2*len(turns))
	replies := make([]string, 0, len(turns))

	for _, turn := range turns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: turn})
		res, err := e.provider.Complete(ctx, &llm.Request{
			Messages: messages,
			Config:   e.config,
		})
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, llm.TransientErr(e.provider.Name(), errors.New("nil result"))
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: res.Content})
		replies = append(replies, res.Content)
	}

	return replies, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
