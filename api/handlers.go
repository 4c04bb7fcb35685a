package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/lm-harness/internal/dataset"
	"github.com/stellarlinkco/lm-harness/internal/leaderboard"
	"github.com/stellarlinkco/lm-harness/internal/llm"
)

type runRequest struct {
	Dataset    string   `json:"dataset"`
	Provider   string   `json:"provider,omitempty"`
	SampleSize int      `json:"sample_size,omitempty"`
	Categories []string `json:"categories,omitempty"`
	MultiTurn  *bool    `json:"multi_turn,omitempty"`
	Save       bool     `json:"save,omitempty"`
}

type datasetSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListDatasets(c *gin.Context) {
	names := dataset.Available()
	out := make([]datasetSummary, 0, len(names))
	for _, name := range names {
		out = append(out, datasetSummary{Name: name, Description: dataset.Describe(name)})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListProviders(c *gin.Context) {
	var names []string
	if s != nil {
		names = s.registry.Names()
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

func (s *Server) handleStartRun(c *gin.Context) {
	if s == nil || s.registry == nil {
		respondError(c, http.StatusInternalServerError, errors.New("providers not configured"))
		return
	}

	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	ds, err := dataset.Resolve(req.Dataset, dataset.ResolveOptions{
		SampleSize: req.SampleSize,
		Categories: req.Categories,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	provider, err := s.resolveProvider(req.Provider)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	multiTurn := false
	if s.config != nil {
		multiTurn = s.config.Generation.MultiTurn
	}
	if req.MultiTurn != nil {
		multiTurn = *req.MultiTurn
	}

	runner := &dataset.Runner{
		Provider:  provider,
		Options:   llm.GenerationOptionsFromConfig(s.config),
		MultiTurn: multiTurn,
	}

	result, err := runner.Run(c.Request.Context(), ds)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	if req.Save {
		if s.lbStore == nil {
			respondError(c, http.StatusInternalServerError, errors.New("leaderboard store not configured"))
			return
		}
		entry := &leaderboard.Entry{
			Model:            result.Model,
			Provider:         result.Provider,
			Dataset:          result.Dataset,
			Score:            result.Score,
			Accuracy:         result.Accuracy,
			LatencyMS:        result.TotalTime.Milliseconds(),
			SampleCount:      len(result.Results),
			CategoryAccuracy: result.CategoryAccuracy,
		}
		if err := s.lbStore.Save(c.Request.Context(), entry); err != nil {
			respondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) resolveProvider(name string) (llm.Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" && s.config != nil {
		name = strings.TrimSpace(s.config.LLM.DefaultProvider)
	}
	if name == "" {
		name = "claude"
	}
	p, ok := s.registry.Get(name)
	if !ok {
		available := s.registry.Names()
		return nil, fmt.Errorf("provider %q not configured (available: %s)", name, strings.Join(available, ", "))
	}
	return p, nil
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid limit")
	}
	if n > 100 {
		n = 100
	}
	return n, nil
}
