package cli

import (
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/asr"
	"github.com/alnah/go-dub/internal/config"
	"github.com/alnah/go-dub/internal/diarize"
	"github.com/alnah/go-dub/internal/ffmpeg"
	"github.com/alnah/go-dub/internal/pipeline"
	"github.com/alnah/go-dub/internal/separate"
	"github.com/alnah/go-dub/internal/stage"
	"github.com/alnah/go-dub/internal/stretch"
	"github.com/alnah/go-dub/internal/translate"
	"github.com/alnah/go-dub/internal/tts"
	"github.com/alnah/go-dub/internal/voice"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing commands in isolation.
//
// All fields have production defaults via DefaultEnv(); tests override the
// fields they care about with the With* options.
type Env struct {
	Stderr io.Writer
	Getenv func(string) string

	ConfigLoader  ConfigLoader
	FFmpegResolve func() (string, error)
	RunnerFactory RunnerFactory
}

// ConfigLoader loads the pipeline configuration.
type ConfigLoader interface {
	Load(path string) (*config.Root, error)
}

// RunnerFactory builds pipeline runners. full=true wires every external
// service (needs credentials and binaries); full=false wires only what the
// offline stage commands use.
type RunnerFactory interface {
	NewRunner(env *Env, cfg *config.Root, full, force bool, log *logrus.Entry) (*pipeline.Runner, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithFFmpegResolve sets the ffmpeg binary resolver.
func WithFFmpegResolve(fn func() (string, error)) EnvOption {
	return func(e *Env) { e.FFmpegResolve = fn }
}

// WithRunnerFactory sets the runner factory.
func WithRunnerFactory(f RunnerFactory) EnvOption {
	return func(e *Env) { e.RunnerFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stderr:        os.Stderr,
		Getenv:        os.Getenv,
		ConfigLoader:  &defaultConfigLoader{},
		FFmpegResolve: ffmpeg.Resolve,
		RunnerFactory: &defaultRunnerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(path string) (*config.Root, error) {
	return config.Load(path)
}

// defaultRunnerFactory builds production runners from config and env.
type defaultRunnerFactory struct{}

func (defaultRunnerFactory) NewRunner(env *Env, cfg *config.Root, full, force bool, log *logrus.Entry) (*pipeline.Runner, error) {
	ffmpegPath, err := env.FFmpegResolve()
	if err != nil {
		return nil, err
	}
	exec := ffmpeg.NewExecutor(ffmpegPath)

	deps := pipeline.Deps{
		Fitter: stretch.NewFitter(exec,
			stretch.WithBounds(cfg.ConvertedBounds()),
			stretch.WithFitterLogger(log)),
	}

	if full {
		openaiKey := env.Getenv("OPENAI_API_KEY")
		if openaiKey == "" {
			return nil, ErrOpenAIKeyMissing
		}
		deeplKey := env.Getenv("DEEPL_API_KEY")
		if deeplKey == "" {
			return nil, ErrDeepLKeyMissing
		}
		assemblyKey := env.Getenv("ASSEMBLY_API_KEY")
		if assemblyKey == "" {
			return nil, ErrAssemblyKeyMissing
		}

		openaiClient := openai.NewClient(openaiKey)

		translator, err := translate.NewDeepL(deeplKey,
			translate.WithBaseURL(cfg.Services.DeepLURL))
		if err != nil {
			return nil, err
		}
		diarizer, err := diarize.NewAssemblyAI(assemblyKey,
			diarize.WithBaseURL(cfg.Services.AssemblyAIURL),
			diarize.WithLogger(log))
		if err != nil {
			return nil, err
		}

		deps.Media = exec
		deps.Separator = separate.NewSeparator(
			separate.WithBinary(cfg.Demucs),
			separate.WithLogger(log))
		deps.Recognizer = asr.NewOpenAIRecognizer(openaiClient)
		deps.Diarizer = diarizer
		deps.Translator = translator
		deps.Synth = tts.NewOpenAISynthesizer(openaiClient,
			tts.WithModel(openai.SpeechModel(cfg.TTS.Model)))
		deps.Converter = voice.NewSeedVC(cfg.SeedVC.Python, cfg.SeedVC.Script,
			voice.WithDiffusionSteps(cfg.SeedVC.DiffusionSteps))
	}

	cache := stage.NewCache(
		stage.WithForce(force),
		stage.WithCacheLogger(log))
	return pipeline.NewRunner(cfg, deps,
		pipeline.WithCache(cache),
		pipeline.WithLogger(log)), nil
}

// Compile-time interface verification.
var (
	_ ConfigLoader  = (*defaultConfigLoader)(nil)
	_ RunnerFactory = (*defaultRunnerFactory)(nil)
)
