package llm

const defaultMaxTokens = 1024

// GenerationConfig is the resolved set of sampling options sent with every
// call of one invocation. Pointer fields distinguish "unset" from an
// explicit zero; providers map only the options their protocol supports.
type GenerationConfig struct {
	Temperature       *float64
	TopP              *float64
	TopK              *int
	MaxTokens         int
	RepetitionPenalty *float64
	EnableSearch      *bool
	Stop              []string
	Seed              *int64
}

// GenerationOptions are the raw, possibly-unset option values before
// resolution.
type GenerationOptions struct {
	Temperature       *float64
	TopP              *float64
	TopK              *int
	MaxTokens         int
	RepetitionPenalty *float64
	EnableSearch      *bool
	Stop              []string
	Seed              int64
}

// ResolveGenerationConfig fills defaults and derived options: max_tokens
// defaults to 1024 when unset, and the seed is injected exactly when
// temperature is explicitly zero, so greedy runs stay reproducible.
func ResolveGenerationConfig(opts GenerationOptions) GenerationConfig {
	cfg := GenerationConfig{
		Temperature:       opts.Temperature,
		TopP:              opts.TopP,
		TopK:              opts.TopK,
		MaxTokens:         opts.MaxTokens,
		RepetitionPenalty: opts.RepetitionPenalty,
		EnableSearch:      opts.EnableSearch,
	}

	if len(opts.Stop) > 0 {
		cfg.Stop = append([]string(nil), opts.Stop...)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature != nil && *opts.Temperature == 0 {
		seed := opts.Seed
		cfg.Seed = &seed
	}
	return cfg
}

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func Bool(v bool) *bool { return &v }
