package claude

import "testing"

func TestText(t *testing.T) {
	t.Parallel()

	if got := Text(nil); got != "" {
		t.Fatalf("Text(nil): got %q", got)
	}

	resp := &Response{
		Content: []ContentBlock{
			{Type: "text", Text: "Hello"},
			{Type: "other", Text: "skipped"},
			{Type: "text", Text: ", world"},
		},
	}
	if got := Text(resp); got != "Hello, world" {
		t.Fatalf("Text: got %q", got)
	}
}
