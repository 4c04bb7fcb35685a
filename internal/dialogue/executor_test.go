package dialogue

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stellarlinkco/lm-harness/internal/llm"
)

// scriptProvider fails the first failures calls, then echoes replies. It
// records a snapshot of the messages from every call.
type scriptProvider struct {
	failures int
	calls    int
	seen     [][]llm.Message
}

func (p *scriptProvider) Name() string  { return "script" }
func (p *scriptProvider) Model() string { return "script-1" }

func (p *scriptProvider) Complete(_ context.Context, req *llm.Request) (*llm.Result, error) {
	p.calls++
	p.seen = append(p.seen, append([]llm.Message(nil), req.Messages...))
	if p.calls <= p.failures {
		return nil, llm.TransientErr("script", errors.New("status 500"))
	}
	return &llm.Result{Content: fmt.Sprintf("reply-%d", p.calls)}, nil
}

func newTestExecutor(p llm.Provider, opts ...ExecutorOption) *Executor {
	e := NewExecutor(p, llm.GenerationConfig{MaxTokens: 16}, opts...)
	e.sleep = func(context.Context, time.Duration) error { return nil }
	e.logf = func(string, ...any) {}
	return e
}

func TestRun_SingleTurn(t *testing.T) {
	t.Parallel()

	p := &scriptProvider{}
	e := newTestExecutor(p)

	got, err := e.Run(context.Background(), []string{"Hi"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"reply-1"}) {
		t.Fatalf("Run: got %#v", got)
	}
	if len(p.seen) != 1 || len(p.seen[0]) != 1 {
		t.Fatalf("messages: got %#v", p.seen)
	}
	if p.seen[0][0].Role != llm.RoleUser || p.seen[0][0].Content != "Hi" {
		t.Fatalf("messages[0]: got %#v", p.seen[0][0])
	}
}

func TestRun_MultiTurnThreadsConversation(t *testing.T) {
	t.Parallel()

	p := &scriptProvider{}
	e := newTestExecutor(p)

	got, err := e.Run(context.Background(), []string{"Hi", "How are you?"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"reply-1", "reply-2"}) {
		t.Fatalf("Run: got %#v", got)
	}

	// Second call must carry the full prior exchange.
	final := p.seen[1]
	want := []llm.Message{
		{Role: llm.RoleUser, Content: "Hi"},
		{Role: llm.RoleAssistant, Content: "reply-1"},
		{Role: llm.RoleUser, Content: "How are you?"},
	}
	if !reflect.DeepEqual(final, want) {
		t.Fatalf("final call messages: got %#v want %#v", final, want)
	}
}

func TestRun_FailedRoundRestartsFromEmptyConversation(t *testing.T) {
	t.Parallel()

	// First round: turn 1 succeeds, turn 2 fails. Second round succeeds.
	p := &flakyProvider{failOnCall: 2}
	e := newTestExecutor(p)

	got, err := e.Run(context.Background(), []string{"Hi", "How are you?"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Run: got %d replies", len(got))
	}

	// Call 3 opens the retried round; it must see exactly one message, with
	// no leakage from the abandoned round.
	if len(p.seen) != 4 {
		t.Fatalf("calls: got %d want 4", len(p.seen))
	}
	if len(p.seen[2]) != 1 {
		t.Fatalf("retried round first call: got %d messages want 1", len(p.seen[2]))
	}

	// Final call of the retried round holds user/assistant/user; with the
	// last reply appended the conversation is 4 messages, alternating.
	final := p.seen[3]
	if len(final) != 3 {
		t.Fatalf("final call: got %d messages want 3", len(final))
	}
	for i, m := range final {
		wantRole := llm.RoleUser
		if i%2 == 1 {
			wantRole = llm.RoleAssistant
		}
		if m.Role != wantRole {
			t.Fatalf("final[%d].Role: got %q want %q", i, m.Role, wantRole)
		}
	}
}

// flakyProvider fails exactly one call (by global call number), succeeding
// otherwise.
type flakyProvider struct {
	failOnCall int
	calls      int
	seen       [][]llm.Message
}

func (p *flakyProvider) Name() string  { return "flaky" }
func (p *flakyProvider) Model() string { return "flaky-1" }

func (p *flakyProvider) Complete(_ context.Context, req *llm.Request) (*llm.Result, error) {
	p.calls++
	p.seen = append(p.seen, append([]llm.Message(nil), req.Messages...))
	if p.calls == p.failOnCall {
		return nil, llm.TransientErr("flaky", errors.New("status 503"))
	}
	return &llm.Result{Content: fmt.Sprintf("reply-%d", p.calls)}, nil
}

func TestRun_RetryExhausted(t *testing.T) {
	t.Parallel()

	p := &scriptProvider{failures: DefaultMaxRetries}
	e := newTestExecutor(p)

	got, err := e.Run(context.Background(), []string{"Hi"})
	if got != nil {
		t.Fatalf("Run: expected zero results, got %#v", got)
	}
	if err == nil {
		t.Fatalf("Run: expected error")
	}

	var lerr *llm.Error
	if !errors.As(err, &lerr) || lerr.Kind != llm.ErrRetryExhausted {
		t.Fatalf("Run: got %v, want retry_exhausted", err)
	}
	if p.calls != DefaultMaxRetries {
		t.Fatalf("calls: got %d want %d", p.calls, DefaultMaxRetries)
	}

	// Terminal error carries the last attempt's cause.
	var cause *llm.Error
	if !errors.As(lerr.Cause, &cause) || cause.Kind != llm.ErrTransient {
		t.Fatalf("cause: got %v", lerr.Cause)
	}
}

func TestRun_RetryEventuallySucceeds(t *testing.T) {
	t.Parallel()

	p := &scriptProvider{failures: 1}
	e := newTestExecutor(p)

	slept := 0
	e.sleep = func(context.Context, time.Duration) error { slept++; return nil }

	got, err := e.Run(context.Background(), []string{"Hi"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Run: got %#v", got)
	}
	if slept != 1 {
		t.Fatalf("sleeps: got %d want 1", slept)
	}
}

func TestRun_ConfigErrorNotRetried(t *testing.T) {
	t.Parallel()

	p := &errProvider{err: llm.ConfigErr("errprov", "missing api key")}
	e := newTestExecutor(p)

	_, err := e.Run(context.Background(), []string{"Hi"})
	var lerr *llm.Error
	if !errors.As(err, &lerr) || lerr.Kind != llm.ErrConfig {
		t.Fatalf("Run: got %v, want config error", err)
	}
	if p.calls != 1 {
		t.Fatalf("calls: got %d want 1", p.calls)
	}
}

type errProvider struct {
	err   error
	calls int
}

func (p *errProvider) Name() string  { return "errprov" }
func (p *errProvider) Model() string { return "errprov-1" }

func (p *errProvider) Complete(context.Context, *llm.Request) (*llm.Result, error) {
	p.calls++
	return nil, p.err
}

func TestRun_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	p := &scriptProvider{failures: 100}
	e := NewExecutor(p, llm.GenerationConfig{}, WithBackoff(time.Millisecond))
	e.logf = func(string, ...any) {}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, []string{"Hi"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v want context.Canceled", err)
	}
}

func TestRun_IndependentInvocationsShareNoState(t *testing.T) {
	t.Parallel()

	p := &scriptProvider{}
	e := newTestExecutor(p)

	if _, err := e.Run(context.Background(), []string{"one"}); err != nil {
		t.Fatalf("Run(one): %v", err)
	}
	if _, err := e.Run(context.Background(), []string{"two"}); err != nil {
		t.Fatalf("Run(two): %v", err)
	}

	// The second invocation's conversation starts fresh.
	if len(p.seen[1]) != 1 || p.seen[1][0].Content != "two" {
		t.Fatalf("second invocation messages: got %#v", p.seen[1])
	}
}

func TestRun_EmptyTurns(t *testing.T) {
	t.Parallel()

	e := newTestExecutor(&scriptProvider{})
	got, err := e.Run(context.Background(), nil)
	if err != nil || got != nil {
		t.Fatalf("Run(nil): got %#v, %v", got, err)
	}
}

func TestExecutorOptions(t *testing.T) {
	t.Parallel()

	p := &scriptProvider{failures: 3}
	e := newTestExecutor(p, WithMaxRetries(2), WithBackoff(0))

	_, err := e.Run(context.Background(), []string{"Hi"})
	var lerr *llm.Error
	if !errors.As(err, &lerr) || lerr.Kind != llm.ErrRetryExhausted {
		t.Fatalf("Run: got %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("calls: got %d want 2", p.calls)
	}
}
