package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type mcqExpected struct {
	Answer  any      `json:"answer"`
	Choices []string `json:"choices,omitempty"`
}

func unwrapMCQExpected(expected any) (any, []string) {
	switch v := expected.(type) {
	case mcqExpected:
		return v.Answer, v.Choices
	case *mcqExpected:
		if v == nil {
			return nil, nil
		}
		return v.Answer, v.Choices
	default:
		return expected, nil
	}
}

func expectedChoiceIndex(answer any, choices []string) (int, error) {
	if len(choices) == 0 {
		choices = []string{"A", "B", "C", "D"}
	}
	max := len(choices)
	if max > 26 {
		max = 26
	}

	switch v := answer.(type) {
	case int:
		return normalizeIndex(v, max)
	case int64:
		return normalizeIndex(int(v), max)
	case float64:
		return normalizeIndex(int(v), max)
	case string:
		return parseExpectedString(v, choices, max)
	default:
		return -1, fmt.Errorf("mcq: unsupported expected answer type %T", answer)
	}
}

func normalizeIndex(idx int, max int) (int, error) {
	switch {
	case idx >= 0 && idx < max:
		return idx, nil
	case idx >= 1 && idx <= max:
		return idx - 1, nil
	default:
		return -1, fmt.Errorf("mcq: expected answer out of range (got %d, max %d)", idx, max)
	}
}

func parseExpectedString(s string, choices []string, max int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1, errors.New("mcq: empty expected answer")
	}

	if len(s) == 1 {
		c := s[0]
		if c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		if c >= 'A' && c <= 'Z' {
			idx := int(c - 'A')
			if idx >= 0 && idx < max {
				return idx, nil
			}
		}
	}

	if n, err := strconv.Atoi(s); err == nil {
		return normalizeIndex(n, max)
	}

	needle := strings.ToLower(s)
	for i, c := range choices {
		if strings.ToLower(strings.TrimSpace(c)) == needle {
			if i < max {
				return i, nil
			}
		}
	}

	return -1, fmt.Errorf("mcq: could not parse expected answer %q", s)
}

// parseMCQResponse extracts a choice index from free-form model output:
// a standalone letter token, a standalone number, or the literal choice
// text, tried in that order.
func parseMCQResponse(response string, choices []string) (int, bool) {
	s := strings.TrimSpace(response)
	if s == "" {
		return -1, false
	}

	max := len(choices)
	if max <= 0 {
		max = 4
	}
	if max > 26 {
		max = 26
	}

	if idx, ok := extractLetterToken(s, max); ok {
		return idx, true
	}
	if idx, ok := extractNumberToken(s, max); ok {
		return idx, true
	}
	if idx, ok := matchChoiceText(s, choices, max); ok {
		return idx, true
	}
	return -1, false
}

func extractLetterToken(s string, max int) (int, bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		if c < 'A' || c > 'Z' {
			continue
		}
		idx := int(c - 'A')
		if idx < 0 || idx >= max {
			continue
		}

		prevOK := i == 0 || !isAlphaNum(s[i-1])
		nextOK := i+1 == len(s) || !isAlphaNum(s[i+1])
		if prevOK && nextOK {
			return idx, true
		}
	}
	return -1, false
}

func extractNumberToken(s string, max int) (int, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			continue
		}
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		n, err := strconv.Atoi(s[i:j])
		if err != nil {
			continue
		}
		if n >= 1 && n <= max {
			return n - 1, true
		}
		if n >= 0 && n < max {
			return n, true
		}
		i = j - 1
	}
	return -1, false
}

func matchChoiceText(s string, choices []string, max int) (int, bool) {
	if len(choices) == 0 {
		return -1, false
	}
	ls := strings.ToLower(s)
	for i, c := range choices {
		if i >= max {
			return -1, false
		}
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if strings.Contains(ls, c) {
			return i, true
		}
	}
	return -1, false
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
