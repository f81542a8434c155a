package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alnah/go-dub/internal/config"
)

// supportedFormats lists video containers ffmpeg demuxes reliably.
var supportedFormats = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
}

// supportedFormatsList returns a sorted, comma-separated list for error messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// commonFlags are shared by every command.
type commonFlags struct {
	configPath string
	force      bool
	verbose    bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", config.DefaultFile, "Config file path")
	cmd.Flags().BoolVar(&f.force, "force", false, "Recompute stages even when their outputs exist")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")
}

// setup loads config and builds the logger shared by all commands.
func setup(env *Env, flags *commonFlags) (*config.Root, *logrus.Entry, error) {
	log := logrus.New()
	log.SetOutput(env.Stderr)
	if flags.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := env.ConfigLoader.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logrus.NewEntry(log), nil
}

// validateVideo checks the input file exists and has a supported extension.
func validateVideo(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedFormats[ext] {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, ext, supportedFormatsList())
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return nil
}

// RunCmd creates the run command, the full dubbing pipeline.
func RunCmd(env *Env) *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "run <video-file>",
		Short: "Dub a video end to end",
		Long: `Run the full dubbing pipeline on a video file.

The soundtrack is extracted and split into vocals and background, speech is
transcribed and attributed to speakers, the transcript is translated, each
utterance is re-synthesized in the speaker's voice, fitted back into its
original time slot, and mixed over the background into a dubbed video.

Intermediate artifacts live under <work_dir>/<video name>/ and completed
stages are skipped on re-runs; use --force to recompute everything.

Requires OPENAI_API_KEY, DEEPL_API_KEY and ASSEMBLY_API_KEY in the
environment (or a .env file), plus ffmpeg, demucs and seed-vc installed.`,
		Example: `  dub run interview.mp4
  dub run interview.mp4 --force
  dub run lecture.mkv -c prod.yaml -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video := args[0]
			if err := validateVideo(video); err != nil {
				return err
			}
			cfg, log, err := setup(env, &flags)
			if err != nil {
				return err
			}
			runner, err := env.RunnerFactory.NewRunner(env, cfg, true, flags.force, log)
			if err != nil {
				return err
			}
			return runner.Run(cmd.Context(), video)
		},
	}

	flags.register(cmd)
	return cmd
}
