package stage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/go-dub/internal/stage"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCache_Done(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := touch(t, filepath.Join(dir, "present.wav"))
	alsoPresent := touch(t, filepath.Join(dir, "also.wav"))
	absent := filepath.Join(dir, "absent.wav")

	tests := []struct {
		name    string
		force   bool
		outputs []string
		want    bool
	}{
		{"all outputs exist", false, []string{present, alsoPresent}, true},
		{"one output missing", false, []string{present, absent}, false},
		{"no declared outputs", false, nil, false},
		{"force recompute overrides existence", true, []string{present}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := stage.NewCache(stage.WithForce(tt.force))
			if got := c.Done("align", tt.outputs...); got != tt.want {
				t.Errorf("Done() = %v, want %v", got, tt.want)
			}
		})
	}
}
