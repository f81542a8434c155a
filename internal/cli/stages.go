package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alnah/go-dub/internal/pipeline"
)

// stageFn runs one pipeline stage against a video's work directory.
type stageFn func(ctx context.Context, r *pipeline.Runner, l pipeline.Layout) error

// stageCmd builds a single-stage command. Stage commands work from the
// artifacts already present in the work directory, so the video file itself
// does not have to exist; its name only selects the directory.
func stageCmd(env *Env, use, short, long string, fn stageFn) *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   use + " <video-file>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(env, &flags)
			if err != nil {
				return err
			}
			runner, err := env.RunnerFactory.NewRunner(env, cfg, false, flags.force, log)
			if err != nil {
				return err
			}
			return fn(cmd.Context(), runner, pipeline.NewLayout(cfg.WorkDir, args[0]))
		},
	}

	flags.register(cmd)
	return cmd
}

// AlignCmd creates the align command.
func AlignCmd(env *Env) *cobra.Command {
	return stageCmd(env, "align", "Attach speaker labels to the transcript",
		`Combine the recognition segments and diarization turns already in the
work directory into a speaker-labeled timeline (transcript.json). Segments
that overlap no speaker turn are discarded.`,
		func(ctx context.Context, r *pipeline.Runner, l pipeline.Layout) error {
			return r.Align(l)
		})
}

// MergeCmd creates the merge command.
func MergeCmd(env *Env) *cobra.Command {
	return stageCmd(env, "merge", "Merge adjacent same-speaker utterances",
		`Fold consecutive utterances of the same speaker whose gap is below the
configured threshold into single utterances (transcript_con.json).`,
		func(ctx context.Context, r *pipeline.Runner, l pipeline.Layout) error {
			return r.Merge(l)
		})
}

// SliceCmd creates the slice command.
func SliceCmd(env *Env) *cobra.Command {
	return stageCmd(env, "slice", "Cut per-utterance clips from the vocal stem",
		`Cut one clip per utterance from the separated vocal track, plus a
concatenated per-speaker track used as the voice conversion target.`,
		func(ctx context.Context, r *pipeline.Runner, l pipeline.Layout) error {
			return r.Slice(ctx, l)
		})
}

// RefsCmd creates the refs command.
func RefsCmd(env *Env) *cobra.Command {
	return stageCmd(env, "refs", "Build reference audio per utterance",
		`Concatenate each utterance with its same-speaker neighbors into a
reference clip that anchors voice conversion.`,
		func(ctx context.Context, r *pipeline.Runner, l pipeline.Layout) error {
			return r.References(ctx, l)
		})
}

// StretchCmd creates the stretch command.
func StretchCmd(env *Env) *cobra.Command {
	return stageCmd(env, "stretch", "Fit converted clips into their time slots",
		`Time-stretch each voice-converted clip so it fills its utterance's
original duration, within the configured ratio bounds, trimming any excess.`,
		func(ctx context.Context, r *pipeline.Runner, l pipeline.Layout) error {
			return r.FitDurations(ctx, l)
		})
}

// MixCmd creates the mix command.
func MixCmd(env *Env) *cobra.Command {
	return stageCmd(env, "mix", "Compose the final dubbed soundtrack",
		`Overlay every fitted clip onto the background stem at its utterance
start time and write final_mix.wav.`,
		func(ctx context.Context, r *pipeline.Runner, l pipeline.Layout) error {
			return r.Mix(l)
		})
}
