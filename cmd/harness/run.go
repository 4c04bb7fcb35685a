package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/lm-harness/internal/config"
	"github.com/stellarlinkco/lm-harness/internal/dataset"
	"github.com/stellarlinkco/lm-harness/internal/leaderboard"
	"github.com/stellarlinkco/lm-harness/internal/llm"
)

const defaultSQLitePath = "data/lm-harness.db"

type runOptions struct {
	model      string
	provider   string
	dataset    string
	sampleSize int
	categories []string
	multiTurn  bool
	save       bool
	verbose    bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark dataset",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("multi-turn") && st.cfg != nil {
				opts.multiTurn = st.cfg.Generation.MultiTurn
			}
			return runRun(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (overrides config)")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "dataset: winogender|mmlu")
	cmd.Flags().IntVar(&opts.sampleSize, "sample-size", 0, "sample size (0 = all)")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "restrict to categories (genders or subjects)")
	cmd.Flags().BoolVar(&opts.multiTurn, "multi-turn", false, "split prompts on the turn separator")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the result to the leaderboard")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "print per-instance results")

	return cmd
}

func runRun(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}
	if opts.sampleSize < 0 {
		return fmt.Errorf("run: --sample-size must be >= 0 (got %d)", opts.sampleSize)
	}

	ds, err := dataset.Resolve(opts.dataset, dataset.ResolveOptions{
		SampleSize: opts.sampleSize,
		Categories: opts.categories,
	})
	if err != nil {
		return err
	}

	provider, err := resolveRunProvider(st.cfg, opts.provider, opts.model)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &dataset.Runner{
		Provider:  provider,
		Options:   llm.GenerationOptionsFromConfig(st.cfg),
		MultiTurn: opts.multiTurn,
	}
	res, err := r.Run(ctx, ds)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dataset=%s provider=%s model=%s samples=%d accuracy=%.4f time_ms=%d\n",
		res.Dataset, res.Provider, res.Model, len(res.Results), res.Accuracy, res.TotalTime.Milliseconds())

	if len(res.CategoryAccuracy) > 0 {
		categories := make([]string, 0, len(res.CategoryAccuracy))
		for c := range res.CategoryAccuracy {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Fprintf(out, "  %s: %.4f\n", c, res.CategoryAccuracy[c])
		}
	}

	if opts.verbose {
		for _, ir := range res.Results {
			status := "PASS"
			if !ir.Passed {
				status = "FAIL"
			}
			line := fmt.Sprintf("  [%s] %s score=%.2f", status, ir.ID, ir.Score)
			if ir.Error != "" {
				line += " error=" + ir.Error
			}
			fmt.Fprintln(out, line)
		}
	}

	if opts.save {
		lb, err := openLeaderboardStore(st.cfg)
		if err != nil {
			return err
		}
		defer lb.Close()

		entry := &leaderboard.Entry{
			Model:            res.Model,
			Provider:         res.Provider,
			Dataset:          res.Dataset,
			Score:            res.Score,
			Accuracy:         res.Accuracy,
			LatencyMS:        res.TotalTime.Milliseconds(),
			SampleCount:      len(res.Results),
			CategoryAccuracy: res.CategoryAccuracy,
			EvalDate:         time.Now().UTC(),
		}
		if err := lb.Save(ctx, entry); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved: id=%d\n", entry.ID)
	}

	return nil
}

func resolveRunProvider(cfg *config.Config, providerFlag, modelFlag string) (llm.Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("run: missing config")
	}

	providerName := strings.TrimSpace(providerFlag)
	if providerName == "" {
		providerName = strings.TrimSpace(cfg.LLM.DefaultProvider)
	}
	providerName = normalizeProvider(providerName)
	if providerName == "" {
		return nil, fmt.Errorf("run: missing provider")
	}

	pcfg, ok := cfg.LLM.Providers[providerName]
	if !ok {
		available := make([]string, 0, len(cfg.LLM.Providers))
		for k := range cfg.LLM.Providers {
			available = append(available, k)
		}
		sort.Strings(available)
		return nil, fmt.Errorf("run: provider %q not configured (available: %s)", providerName, strings.Join(available, ", "))
	}

	model := strings.TrimSpace(modelFlag)
	if model == "" {
		model = strings.TrimSpace(pcfg.Model)
	}

	switch providerName {
	case "claude":
		return llm.NewClaudeProvider(pcfg.APIKey, pcfg.BaseURL, model), nil
	case "openai":
		return llm.NewOpenAIProvider(pcfg.APIKey, pcfg.BaseURL, model), nil
	case "dashscope":
		return llm.NewDashscopeProvider(pcfg.APIKey, pcfg.BaseURL, model)
	default:
		return nil, fmt.Errorf("run: unsupported provider %q", providerName)
	}
}

func normalizeProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "anthropic":
		return "claude"
	default:
		return name
	}
}

func openLeaderboardStore(cfg *config.Config) (*leaderboard.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("leaderboard: missing config")
	}

	storageType := strings.ToLower(strings.TrimSpace(cfg.Storage.Type))
	if storageType == "" {
		storageType = "sqlite"
	}

	switch storageType {
	case "sqlite":
		path := strings.TrimSpace(cfg.Storage.Path)
		if path == "" {
			path = defaultSQLitePath
		}
		return leaderboard.NewStore(path)
	case "memory":
		return leaderboard.NewStore(":memory:")
	default:
		return nil, fmt.Errorf("leaderboard: unsupported type %q", storageType)
	}
}
