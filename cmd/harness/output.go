package main

import "github.com/stellarlinkco/lm-harness/internal/leaderboard"

// leaderboardEntry is the display shape for a stored entry, with the
// eval date rendered as a fixed-format UTC string.
type leaderboardEntry struct {
	ID               int64              `json:"id"`
	Model            string             `json:"model"`
	Provider         string             `json:"provider"`
	Dataset          string             `json:"dataset"`
	Score            float64            `json:"score"`
	Accuracy         float64            `json:"accuracy"`
	LatencyMS        int64              `json:"latency_ms"`
	SampleCount      int                `json:"sample_count"`
	CategoryAccuracy map[string]float64 `json:"category_accuracy,omitempty"`
	EvalDate         string             `json:"eval_date"`
}

func toDisplayEntries(in []leaderboard.Entry) []leaderboardEntry {
	out := make([]leaderboardEntry, 0, len(in))
	for _, e := range in {
		out = append(out, leaderboardEntry{
			ID:               e.ID,
			Model:            e.Model,
			Provider:         e.Provider,
			Dataset:          e.Dataset,
			Score:            e.Score,
			Accuracy:         e.Accuracy,
			LatencyMS:        e.LatencyMS,
			SampleCount:      e.SampleCount,
			CategoryAccuracy: e.CategoryAccuracy,
			EvalDate:         e.EvalDate.UTC().Format("2006-01-02 15:04:05Z"),
		})
	}
	return out
}
