package separate_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/separate"
)

// fakeDemucs simulates demucs writing its nested stem layout under --out.
type fakeDemucs struct {
	args         []string
	fail         bool
	writeVocals  bool
	writeBacking bool
}

func (f *fakeDemucs) run(_ context.Context, _ string, args []string) (string, error) {
	f.args = args
	if f.fail {
		return "CUDA out of memory", errors.New("exit status 1")
	}
	outDir := argValue(args, "--out")
	input := args[len(args)-1]
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	stemDir := filepath.Join(outDir, separate.Model, base)
	if err := os.MkdirAll(stemDir, 0o755); err != nil {
		return "", err
	}
	if f.writeVocals {
		if err := os.WriteFile(filepath.Join(stemDir, separate.VocalsFile), []byte("vox"), 0o644); err != nil {
			return "", err
		}
	}
	if f.writeBacking {
		if err := os.WriteFile(filepath.Join(stemDir, separate.BackgroundFile), []byte("bg"), 0o644); err != nil {
			return "", err
		}
	}
	return "", nil
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func newSeparator(runner *fakeDemucs) *separate.Separator {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return separate.NewSeparator(
		separate.WithRunner(runner.run),
		separate.WithLogger(logrus.NewEntry(quiet)))
}

func TestSeparate_BothStems(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	runner := &fakeDemucs{writeVocals: true, writeBacking: true}

	vocals, background, err := newSeparator(runner).Separate(context.Background(), "in/audio.wav", outDir)
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}

	if vocals != filepath.Join(outDir, separate.VocalsFile) {
		t.Errorf("unexpected vocals path %q", vocals)
	}
	if background != filepath.Join(outDir, separate.BackgroundFile) {
		t.Errorf("unexpected background path %q", background)
	}
	for path, want := range map[string]string{vocals: "vox", background: "bg"} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(data) != want {
			t.Errorf("%s: expected %q, got %q", path, want, data)
		}
	}

	// The nested model directory is cleaned up.
	if _, err := os.Stat(filepath.Join(outDir, separate.Model)); !os.IsNotExist(err) {
		t.Errorf("model directory should be removed, stat err: %v", err)
	}

	// Command shape.
	if argValue(runner.args, "-n") != separate.Model {
		t.Errorf("expected model %q, got %q", separate.Model, argValue(runner.args, "-n"))
	}
	if argValue(runner.args, "--two-stems") != "vocals" {
		t.Errorf("expected two-stem vocals mode, args %v", runner.args)
	}
}

func TestSeparate_MissingBackgroundStem(t *testing.T) {
	t.Parallel()

	runner := &fakeDemucs{writeVocals: true}
	vocals, background, err := newSeparator(runner).Separate(context.Background(), "audio.wav", t.TempDir())
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	if vocals == "" {
		t.Error("expected vocals path")
	}
	if background != "" {
		t.Errorf("expected empty background path, got %q", background)
	}
}

func TestSeparate_NoVocalStem(t *testing.T) {
	t.Parallel()

	runner := &fakeDemucs{}
	_, _, err := newSeparator(runner).Separate(context.Background(), "audio.wav", t.TempDir())
	if !errors.Is(err, separate.ErrNoVocals) {
		t.Fatalf("expected ErrNoVocals, got %v", err)
	}
}

func TestSeparate_ToolFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeDemucs{fail: true}
	_, _, err := newSeparator(runner).Separate(context.Background(), "audio.wav", t.TempDir())
	if !errors.Is(err, separate.ErrExec) {
		t.Fatalf("expected ErrExec, got %v", err)
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Errorf("error should carry tool stderr, got %v", err)
	}
}
