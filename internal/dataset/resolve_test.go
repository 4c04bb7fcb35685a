package dataset

import (
	"reflect"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	ds, err := Resolve("Winogender", ResolveOptions{SampleSize: 5, Categories: []string{"female"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	wd, ok := ds.(*WinogenderDataset)
	if !ok {
		t.Fatalf("Resolve: got %T", ds)
	}
	if wd.SampleSize != 5 || !reflect.DeepEqual(wd.Genders, []string{"female"}) {
		t.Fatalf("Resolve: got %+v", wd)
	}

	ds, err = Resolve("mmlu", ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve(mmlu): %v", err)
	}
	if _, ok := ds.(*MMLUDataset); !ok {
		t.Fatalf("Resolve(mmlu): got %T", ds)
	}
}

func TestResolveUnknown(t *testing.T) {
	t.Parallel()

	_, err := Resolve("gsm8k", ResolveOptions{})
	if err == nil {
		t.Fatalf("Resolve: expected error for unknown dataset")
	}
	if !strings.Contains(err.Error(), "mmlu") || !strings.Contains(err.Error(), "winogender") {
		t.Fatalf("Resolve error should list available datasets: %v", err)
	}

	if _, err := Resolve("  ", ResolveOptions{}); err == nil {
		t.Fatalf("Resolve: expected error for blank name")
	}
}

func TestAvailableAndDescribe(t *testing.T) {
	t.Parallel()

	got := Available()
	if !reflect.DeepEqual(got, []string{"mmlu", "winogender"}) {
		t.Fatalf("Available: got %v", got)
	}
	if Describe("winogender") == "" {
		t.Fatalf("Describe(winogender): empty")
	}
	if Describe("nope") != "" {
		t.Fatalf("Describe(nope): expected empty")
	}
}
