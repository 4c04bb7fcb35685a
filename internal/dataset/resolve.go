package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// ResolveOptions narrow a dataset before loading.
type ResolveOptions struct {
	// SampleSize caps the number of instances; zero means no cap.
	SampleSize int
	// Categories filters instances: genders for winogender, subjects
	// for mmlu. Ignored by datasets without categories.
	Categories []string
}

type datasetInfo struct {
	description string
	build       func(ResolveOptions) Dataset
}

var builtinDatasets = map[string]datasetInfo{
	"winogender": {
		description: "Winogender pronoun resolution benchmark",
		build: func(o ResolveOptions) Dataset {
			return &WinogenderDataset{Genders: o.Categories, SampleSize: o.SampleSize}
		},
	},
	"mmlu": {
		description: "MMLU (Massive Multitask Language Understanding) multiple-choice benchmark",
		build: func(o ResolveOptions) Dataset {
			return &MMLUDataset{Subjects: o.Categories, SampleSize: o.SampleSize}
		},
	},
}

// Resolve builds a dataset by name.
func Resolve(name string, opts ResolveOptions) (Dataset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("dataset: empty dataset name (available: %s)", strings.Join(Available(), ", "))
	}
	info, ok := builtinDatasets[key]
	if !ok {
		return nil, fmt.Errorf("dataset: unknown dataset %q (available: %s)", name, strings.Join(Available(), ", "))
	}
	return info.build(opts), nil
}

// Available lists the built-in dataset names, sorted.
func Available() []string {
	out := make([]string, 0, len(builtinDatasets))
	for name := range builtinDatasets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Describe returns the one-line description for a known dataset name.
func Describe(name string) string {
	info, ok := builtinDatasets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ""
	}
	return info.description
}
