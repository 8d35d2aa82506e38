package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-templating/pkg/output"
)

// MustReadGoldenString reads a golden file and returns its content. When
// UPDATE_GOLDENS is set and got is non-nil, the file is rewritten with *got
// first.
func MustReadGoldenString(t *testing.T, path string, got *string) string {
	t.Helper()

	if got != nil && os.Getenv("UPDATE_GOLDENS") != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(*got), 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}

// AssertGolden compares got against the golden file at path.
func AssertGolden(t *testing.T, path, got string) {
	t.Helper()

	want := MustReadGoldenString(t, path, &got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("golden %s mismatch (-want +got):\n%s", path, diff)
	}
}

// Chunks drains a writer's entry collection into a slice.
func Chunks(w *output.CollectionWriter) []string {
	var out []string
	for value := range w.Entries().All() {
		out = append(out, value)
	}
	return out
}
