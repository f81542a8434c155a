package voice_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/clip"
	"github.com/alnah/go-dub/internal/timeline"
	"github.com/alnah/go-dub/internal/voice"
)

// ---------------------------------------------------------
// Test doubles
// ---------------------------------------------------------

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and simulates the tool writing a WAV into
// the --output directory.
type fakeRunner struct {
	calls   []call
	failAt  int // 1-based call index that fails, 0 for none
	produce bool
}

func (f *fakeRunner) run(_ context.Context, name string, args []string) (string, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.failAt == len(f.calls) {
		return "traceback: model exploded", errors.New("exit status 1")
	}
	if f.produce {
		outDir := argValue(args, "--output")
		if err := os.WriteFile(filepath.Join(outDir, "vc_out.wav"), []byte("converted"), 0o644); err != nil {
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

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// ---------------------------------------------------------
// Convert
// ---------------------------------------------------------

func TestConvert_MovesProducedWAV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &fakeRunner{produce: true}
	c := voice.NewSeedVC("python", "seed-vc/inference.py", voice.WithRunner(runner.run))

	out := filepath.Join(dir, "converted.wav")
	if err := c.Convert(context.Background(), "src.wav", "ref.wav", out); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "converted" {
		t.Errorf("unexpected output contents %q", data)
	}

	// Scratch directory is removed after the move.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the converted clip to remain, got %d entries", len(entries))
	}
}

func TestConvert_CommandShape(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{produce: true}
	c := voice.NewSeedVC("python", "seed-vc/inference.py",
		voice.WithRunner(runner.run),
		voice.WithDiffusionSteps(50))

	out := filepath.Join(t.TempDir(), "o.wav")
	if err := c.Convert(context.Background(), "in/src.wav", "in/ref.wav", out); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	got := runner.calls[0]
	if got.name != "python" {
		t.Errorf("expected interpreter %q, got %q", "python", got.name)
	}
	if got.args[0] != "seed-vc/inference.py" {
		t.Errorf("expected script first, got %q", got.args[0])
	}
	if v := argValue(got.args, "--source"); v != "in/src.wav" {
		t.Errorf("unexpected --source %q", v)
	}
	if v := argValue(got.args, "--target"); v != "in/ref.wav" {
		t.Errorf("unexpected --target %q", v)
	}
	if v := argValue(got.args, "--diffusion-steps"); v != "50" {
		t.Errorf("unexpected --diffusion-steps %q", v)
	}
	if v := argValue(got.args, "--inference-cfg-rate"); v != "0.7" {
		t.Errorf("unexpected --inference-cfg-rate %q", v)
	}
	if !slices.Contains(got.args, "--length-adjust") {
		t.Error("missing --length-adjust flag")
	}
}

func TestConvert_ToolFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{failAt: 1}
	c := voice.NewSeedVC("python", "inference.py", voice.WithRunner(runner.run))

	err := c.Convert(context.Background(), "s.wav", "r.wav", filepath.Join(t.TempDir(), "o.wav"))
	if !errors.Is(err, voice.ErrExec) {
		t.Fatalf("expected ErrExec, got %v", err)
	}
	if !strings.Contains(err.Error(), "model exploded") {
		t.Errorf("error should carry tool stderr, got %v", err)
	}
}

func TestConvert_NoOutputProduced(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{produce: false}
	c := voice.NewSeedVC("python", "inference.py", voice.WithRunner(runner.run))

	err := c.Convert(context.Background(), "s.wav", "r.wav", filepath.Join(t.TempDir(), "o.wav"))
	if !errors.Is(err, voice.ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
}

// ---------------------------------------------------------
// Timeline conversion
// ---------------------------------------------------------

func TestConvertTimeline(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tl := timeline.Timeline{
		{Speaker: "A", Start: 0, End: 1, Translation: "uno"},
		{Speaker: "B", Start: 1, End: 2}, // untranslated, no synthesized clip
		{Speaker: "A", Start: 2, End: 3, Translation: "dos"},
	}

	// Synthesized clips exist for A only.
	for _, n := range []int{1, 2} {
		dir := clip.StageDir(root, "A", clip.StageSynthesized)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		p := clip.Path(root, "A", clip.StageSynthesized, n)
		if err := os.WriteFile(p, []byte("tts"), 0o644); err != nil {
			t.Fatalf("write clip: %v", err)
		}
	}

	runner := &fakeRunner{produce: true}
	c := voice.NewSeedVC("python", "inference.py", voice.WithRunner(runner.run))

	converted, err := voice.ConvertTimeline(context.Background(), c, tl, root, quietLog())
	if err != nil {
		t.Fatalf("ConvertTimeline: %v", err)
	}
	if converted != 2 {
		t.Fatalf("expected 2 conversions, got %d", converted)
	}

	for _, n := range []int{1, 2} {
		p := clip.Path(root, "A", clip.StageConverted, n)
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected converted clip %s: %v", p, err)
		}
	}

	// Each conversion targets the matching reference clip.
	if v := argValue(runner.calls[0].args, "--target"); v != clip.Path(root, "A", clip.StageReference, 1) {
		t.Errorf("unexpected reference target %q", v)
	}
}

func TestConvertTimeline_InvalidTimeline(t *testing.T) {
	t.Parallel()

	tl := timeline.Timeline{{Speaker: "A", Start: 2, End: 1}}
	c := voice.NewSeedVC("python", "inference.py", voice.WithRunner((&fakeRunner{}).run))

	_, err := voice.ConvertTimeline(context.Background(), c, tl, t.TempDir(), quietLog())
	if !errors.Is(err, timeline.ErrInvalidTimeline) {
		t.Fatalf("expected ErrInvalidTimeline, got %v", err)
	}
}
