package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stellarlinkco/lm-harness/internal/leaderboard"
)

func seedEntries(t *testing.T, st *leaderboard.Store) {
	t.Helper()
	ctx := context.Background()
	entries := []*leaderboard.Entry{
		{Model: "claude-test", Provider: "claude", Dataset: "winogender", Score: 0.9, Accuracy: 0.9, SampleCount: 10},
		{Model: "gpt-4o", Provider: "openai", Dataset: "winogender", Score: 0.8, Accuracy: 0.8, SampleCount: 10},
		{Model: "claude-test", Provider: "claude", Dataset: "mmlu", Score: 0.7, Accuracy: 0.7, SampleCount: 5},
	}
	for _, e := range entries {
		if err := st.Save(ctx, e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestHandleGetLeaderboard(t *testing.T) {
	st := newTestLBStore(t)
	seedEntries(t, st)
	s := newTestServer(t, nil, testRegistry("A"), st)

	w := perform(t, s, http.MethodGet, "/api/leaderboard?dataset=winogender", nil)
	assertStatus(t, w, http.StatusOK)

	entries := decodeJSON[[]leaderboard.Entry](t, w)
	if len(entries) != 2 || entries[0].Model != "claude-test" {
		t.Fatalf("leaderboard: %+v", entries)
	}

	w = perform(t, s, http.MethodGet, "/api/leaderboard?dataset=winogender&limit=1", nil)
	assertStatus(t, w, http.StatusOK)
	entries = decodeJSON[[]leaderboard.Entry](t, w)
	if len(entries) != 1 {
		t.Fatalf("limited leaderboard: %+v", entries)
	}
}

func TestHandleGetLeaderboard_BadRequests(t *testing.T) {
	st := newTestLBStore(t)
	s := newTestServer(t, nil, testRegistry("A"), st)

	w := perform(t, s, http.MethodGet, "/api/leaderboard", nil)
	assertStatus(t, w, http.StatusBadRequest)

	w = perform(t, s, http.MethodGet, "/api/leaderboard?dataset=winogender&limit=-2", nil)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestHandleGetLeaderboard_NoStore(t *testing.T) {
	s := newTestServer(t, nil, testRegistry("A"), nil)

	w := perform(t, s, http.MethodGet, "/api/leaderboard?dataset=winogender", nil)
	assertStatus(t, w, http.StatusInternalServerError)
}

func TestHandleGetModelHistory(t *testing.T) {
	st := newTestLBStore(t)
	seedEntries(t, st)
	s := newTestServer(t, nil, testRegistry("A"), st)

	w := perform(t, s, http.MethodGet, "/api/leaderboard/history?model=claude-test&dataset=winogender", nil)
	assertStatus(t, w, http.StatusOK)

	entries := decodeJSON[[]leaderboard.Entry](t, w)
	if len(entries) != 1 || entries[0].Dataset != "winogender" {
		t.Fatalf("history: %+v", entries)
	}

	w = perform(t, s, http.MethodGet, "/api/leaderboard/history?model=claude-test", nil)
	assertStatus(t, w, http.StatusBadRequest)
}
