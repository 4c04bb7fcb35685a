package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

const defaultMMLUPath = "data/mmlu.jsonl"

type MMLUDataset struct {
	Subjects   []string
	SampleSize int
}

type mmluRow struct {
	ID       string   `json:"id,omitempty"`
	TaskID   string   `json:"task_id,omitempty"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   any      `json:"answer"`
	Subject  string   `json:"subject,omitempty"`
	Category string   `json:"category,omitempty"`
}

func (d *MMLUDataset) Name() string { return "mmlu" }

func (d *MMLUDataset) Description() string {
	return "MMLU (Massive Multitask Language Understanding) multiple-choice benchmark"
}

func (d *MMLUDataset) Load(ctx context.Context) ([]Instance, error) {
	if ctx == nil {
		return nil, errors.New("mmlu: nil context")
	}

	path := strings.TrimSpace(os.Getenv("LM_HARNESS_MMLU_PATH"))
	if path == "" {
		path = defaultMMLUPath
	}

	rows, err := readJSONL[mmluRow](ctx, path)
	if err != nil {
		if os.IsNotExist(err) {
			return takeFirstN(defaultMMLUSample(), d.SampleSize), nil
		}
		return nil, fmt.Errorf("mmlu: load %q: %w", path, err)
	}

	subjectSet := normalizeStringSet(d.Subjects)
	out := make([]Instance, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		subject := strings.TrimSpace(row.Subject)
		if len(subjectSet) > 0 && !subjectSet[strings.ToLower(subject)] {
			continue
		}

		qText := strings.TrimSpace(row.Question)
		if qText == "" {
			continue
		}

		choices := compactStrings(row.Choices)

		id := strings.TrimSpace(row.ID)
		if id == "" {
			id = strings.TrimSpace(row.TaskID)
		}
		if id == "" {
			id = fmt.Sprintf("mmlu-%d", i+1)
		}

		category := strings.TrimSpace(row.Category)
		if category == "" {
			category = subject
		}

		out = append(out, Instance{
			ID:       id,
			Question: qText,
			Choices:  choices,
			Answer:   mcqExpected{Answer: row.Answer, Choices: choices},
			Category: category,
		})
	}

	out = takeFirstN(out, d.SampleSize)
	if len(out) == 0 {
		return takeFirstN(defaultMMLUSample(), d.SampleSize), nil
	}
	return out, nil
}

func (d *MMLUDataset) Evaluate(response string, expected any) (float64, error) {
	expAns, expChoices := unwrapMCQExpected(expected)
	correctIdx, err := expectedChoiceIndex(expAns, expChoices)
	if err != nil {
		return 0, err
	}

	gotIdx, ok := parseMCQResponse(response, expChoices)
	if !ok {
		return 0, errors.New("mmlu: could not parse model answer")
	}
	if gotIdx == correctIdx {
		return 1, nil
	}
	return 0, nil
}

func defaultMMLUSample() []Instance {
	return []Instance{
		{
			ID:       "mmlu-sample-1",
			Category: "misc",
			Question: "Which planet is known as the Red Planet?",
			Choices:  []string{"Earth", "Mars", "Jupiter", "Venus"},
			Answer:   mcqExpected{Answer: "B", Choices: []string{"Earth", "Mars", "Jupiter", "Venus"}},
		},
		{
			ID:       "mmlu-sample-2",
			Category: "math",
			Question: "What is 7 * 6?",
			Choices:  []string{"36", "40", "42", "48"},
			Answer:   mcqExpected{Answer: "C", Choices: []string{"36", "40", "42", "48"}},
		},
		{
			ID:       "mmlu-sample-3",
			Category: "science",
			Question: "Water boils at what temperature at sea level (Celsius)?",
			Choices:  []string{"50", "75", "100", "125"},
			Answer:   mcqExpected{Answer: "C", Choices: []string{"50", "75", "100", "125"}},
		},
	}
}
