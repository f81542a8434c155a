package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-dub/internal/apierr"
	"github.com/alnah/go-dub/internal/cli"
	"github.com/alnah/go-dub/internal/config"
	"github.com/alnah/go-dub/internal/diarize"
	"github.com/alnah/go-dub/internal/ffmpeg"
	"github.com/alnah/go-dub/internal/separate"
	"github.com/alnah/go-dub/internal/timeline"
	"github.com/alnah/go-dub/internal/voice"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitAPI        = 5
	ExitTool       = 6
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()

	rootCmd := &cobra.Command{
		Use:     "dub",
		Short:   "Dub videos into another language with the original voices",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.RunCmd(env))
	rootCmd.AddCommand(cli.AlignCmd(env))
	rootCmd.AddCommand(cli.MergeCmd(env))
	rootCmd.AddCommand(cli.SliceCmd(env))
	rootCmd.AddCommand(cli.RefsCmd(env))
	rootCmd.AddCommand(cli.StretchCmd(env))
	rootCmd.AddCommand(cli.MixCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Interrupt.
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors: Cobra flag/arg parsing failures.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors: missing binaries or credentials.
	if errors.Is(err, ffmpeg.ErrNotFound) ||
		errors.Is(err, cli.ErrOpenAIKeyMissing) ||
		errors.Is(err, cli.ErrDeepLKeyMissing) ||
		errors.Is(err, cli.ErrAssemblyKeyMissing) {
		return ExitSetup
	}

	// Validation errors: bad input or work directory state.
	if errors.Is(err, cli.ErrFileNotFound) ||
		errors.Is(err, cli.ErrUnsupportedFormat) ||
		errors.Is(err, config.ErrNotFound) ||
		errors.Is(err, config.ErrInvalid) ||
		errors.Is(err, timeline.ErrInvalidTimeline) ||
		errors.Is(err, timeline.ErrMissingArtifact) {
		return ExitValidation
	}

	// External API failures.
	if errors.Is(err, apierr.ErrRateLimit) ||
		errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) ||
		errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrBadRequest) ||
		errors.Is(err, apierr.ErrServer) ||
		errors.Is(err, diarize.ErrJobFailed) {
		return ExitAPI
	}

	// Local tool failures.
	if errors.Is(err, ffmpeg.ErrExec) ||
		errors.Is(err, separate.ErrExec) ||
		errors.Is(err, voice.ErrExec) {
		return ExitTool
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate
// Cobra usage errors. Cobra doesn't expose typed errors, so string matching
// is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
