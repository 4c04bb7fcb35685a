package dialogue

import "strings"

// TurnSeparator is the reserved delimiter joining the turn prompts of a
// multi-turn dialogue into a single batch element.
const TurnSeparator = "__SEPARATOR__"

// SplitTurns expands a prompt batch into the ordered sequence of turn
// prompts to submit.
//
// In single-turn mode every prompt is independent and the batch passes
// through untouched. In multi-turn mode the first element encodes the whole
// dialogue: it is split on TurnSeparator and empty segments are dropped, so
// leading, trailing, or doubled separators neither produce a message nor
// consume a turn. Input without the separator degrades to a single turn.
func SplitTurns(prompts []string, multiTurn bool) []string {
	if !multiTurn {
		return prompts
	}
	if len(prompts) == 0 {
		return nil
	}

	parts := strings.Split(prompts[0], TurnSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}
