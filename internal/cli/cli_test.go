package cli_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alnah/go-dub/internal/cli"
	"github.com/alnah/go-dub/internal/config"
	"github.com/alnah/go-dub/internal/pipeline"
	"github.com/alnah/go-dub/internal/timeline"
)

// ---------------------------------------------------------
// Test doubles
// ---------------------------------------------------------

type fakeConfigLoader struct {
	cfg      *config.Root
	err      error
	lastPath string
}

func (f *fakeConfigLoader) Load(path string) (*config.Root, error) {
	f.lastPath = path
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg != nil {
		return f.cfg, nil
	}
	return config.Default(), nil
}

type fakeRunnerFactory struct {
	full  bool
	force bool
	calls int
	err   error
}

func (f *fakeRunnerFactory) NewRunner(_ *cli.Env, cfg *config.Root, full, force bool, log *logrus.Entry) (*pipeline.Runner, error) {
	f.calls++
	f.full = full
	f.force = force
	if f.err != nil {
		return nil, f.err
	}
	return pipeline.NewRunner(cfg, pipeline.Deps{}, pipeline.WithLogger(log)), nil
}

func newTestEnv(loader *fakeConfigLoader, factory *fakeRunnerFactory) *cli.Env {
	return cli.NewEnv(
		cli.WithStderr(&bytes.Buffer{}),
		cli.WithGetenv(func(string) string { return "" }),
		cli.WithConfigLoader(loader),
		cli.WithRunnerFactory(factory),
	)
}

func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func videoFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(path, []byte("mp4"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// ---------------------------------------------------------
// run command
// ---------------------------------------------------------

func TestRunCmd_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	env := newTestEnv(&fakeConfigLoader{}, &fakeRunnerFactory{})
	err := execute(cli.RunCmd(env), "notes.txt")
	if !errors.Is(err, cli.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRunCmd_MissingFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(&fakeConfigLoader{}, &fakeRunnerFactory{})
	err := execute(cli.RunCmd(env), filepath.Join(t.TempDir(), "absent.mp4"))
	if !errors.Is(err, cli.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestRunCmd_RequestsFullRunner(t *testing.T) {
	t.Parallel()

	factory := &fakeRunnerFactory{}
	env := newTestEnv(&fakeConfigLoader{}, factory)

	// The empty-dep runner fails validation immediately; wiring is what we
	// assert here.
	err := execute(cli.RunCmd(env), videoFixture(t))
	if !errors.Is(err, pipeline.ErrMissingDep) {
		t.Fatalf("expected the stub runner's validation error, got %v", err)
	}
	if factory.calls != 1 || !factory.full {
		t.Errorf("expected one full-runner request, got calls=%d full=%v", factory.calls, factory.full)
	}
	if factory.force {
		t.Error("force should default to false")
	}
}

func TestRunCmd_ForceFlag(t *testing.T) {
	t.Parallel()

	factory := &fakeRunnerFactory{}
	env := newTestEnv(&fakeConfigLoader{}, factory)

	_ = execute(cli.RunCmd(env), videoFixture(t), "--force")
	if !factory.force {
		t.Error("expected force=true to reach the factory")
	}
}

func TestRunCmd_ConfigFlag(t *testing.T) {
	t.Parallel()

	loader := &fakeConfigLoader{}
	env := newTestEnv(loader, &fakeRunnerFactory{})

	_ = execute(cli.RunCmd(env), videoFixture(t), "--config", "custom.yaml")
	if loader.lastPath != "custom.yaml" {
		t.Errorf("expected config path %q, got %q", "custom.yaml", loader.lastPath)
	}
}

func TestRunCmd_ConfigError(t *testing.T) {
	t.Parallel()

	loader := &fakeConfigLoader{err: config.ErrNotFound}
	env := newTestEnv(loader, &fakeRunnerFactory{})

	err := execute(cli.RunCmd(env), videoFixture(t))
	if !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("expected config error to propagate, got %v", err)
	}
}

func TestRunCmd_FactoryError(t *testing.T) {
	t.Parallel()

	factory := &fakeRunnerFactory{err: cli.ErrOpenAIKeyMissing}
	env := newTestEnv(&fakeConfigLoader{}, factory)

	err := execute(cli.RunCmd(env), videoFixture(t))
	if !errors.Is(err, cli.ErrOpenAIKeyMissing) {
		t.Fatalf("expected factory error to propagate, got %v", err)
	}
}

// ---------------------------------------------------------
// stage commands
// ---------------------------------------------------------

func TestStageCmds_RequestOfflineRunner(t *testing.T) {
	t.Parallel()

	builders := map[string]func(*cli.Env) *cobra.Command{
		"align":   cli.AlignCmd,
		"merge":   cli.MergeCmd,
		"slice":   cli.SliceCmd,
		"refs":    cli.RefsCmd,
		"stretch": cli.StretchCmd,
		"mix":     cli.MixCmd,
	}

	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			cfg.WorkDir = t.TempDir()
			factory := &fakeRunnerFactory{}
			env := newTestEnv(&fakeConfigLoader{cfg: cfg}, factory)

			// An empty work directory has no artifacts, so every stage
			// fails with the missing-artifact sentinel; reaching it proves
			// the command built a runner and invoked its stage.
			err := execute(build(env), "talk.mp4")
			if !errors.Is(err, timeline.ErrMissingArtifact) {
				t.Fatalf("expected ErrMissingArtifact, got %v", err)
			}
			if factory.full {
				t.Error("stage commands should not request the full runner")
			}
		})
	}
}

func TestStageCmd_MissingArg(t *testing.T) {
	t.Parallel()

	env := newTestEnv(&fakeConfigLoader{}, &fakeRunnerFactory{})
	if err := execute(cli.AlignCmd(env)); err == nil {
		t.Fatal("expected an argument error")
	}
}
