// Package stretch fits synthesized speech into the original utterance
// cadence: it computes the ratio between the utterance's duration and the
// clip's actual duration, clamps it to a safe range, drives a time-stretch,
// and hard-trims the result so the compositor's overlay offsets stay valid.
package stretch

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/clip"
	"github.com/alnah/go-dub/internal/timeline"
	"github.com/alnah/go-dub/internal/wave"
)

// Bounds is a closed range of acceptable stretch ratios.
type Bounds struct {
	Min float64
	Max float64
}

// Practical ratio bounds. Raw synthesized speech tolerates more extreme
// stretching than audio that has already been through voice conversion,
// which artifacts sooner.
var (
	RawBounds       = Bounds{Min: 0.5, Max: 1.5}
	ConvertedBounds = Bounds{Min: 0.75, Max: 1.25}
)

// Clamp constrains ratio to the bounds and reports whether it changed.
func (b Bounds) Clamp(ratio float64) (float64, bool) {
	switch {
	case ratio < b.Min:
		return b.Min, true
	case ratio > b.Max:
		return b.Max, true
	}
	return ratio, false
}

// shortResultThreshold flags stretched clips that came out suspiciously
// short relative to their target after trimming.
const shortResultThreshold = 0.9

// Stretcher performs the actual time-stretch of an audio file by the given
// duration ratio (output duration = input duration * ratio) without changing
// pitch.
type Stretcher interface {
	Stretch(ctx context.Context, src, dst string, ratio float64) error
}

// Fitter computes clamped stretch ratios and produces duration-trimmed clips.
type Fitter struct {
	bounds    Bounds
	stretcher Stretcher
	log       *logrus.Entry
}

// FitterOption configures a Fitter.
type FitterOption func(*Fitter)

// WithBounds sets the ratio clamp range.
func WithBounds(b Bounds) FitterOption {
	return func(f *Fitter) { f.bounds = b }
}

// WithFitterLogger sets the logger.
func WithFitterLogger(log *logrus.Entry) FitterOption {
	return func(f *Fitter) { f.log = log }
}

// NewFitter creates a Fitter for voice-converted audio (the tighter default
// bounds). The stretcher is injected so tests can run without ffmpeg.
func NewFitter(stretcher Stretcher, opts ...FitterOption) *Fitter {
	f := &Fitter{
		bounds:    ConvertedBounds,
		stretcher: stretcher,
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Ratio returns the clamped stretch ratio for fitting a clip of origMS into
// targetMS. A clamped result is a warning, not an error: the output will not
// exactly match the target duration.
func (f *Fitter) Ratio(targetMS, origMS int) (float64, bool) {
	ratio, clamped := f.bounds.Clamp(float64(targetMS) / float64(origMS))
	if clamped {
		f.log.WithFields(logrus.Fields{
			"target_ms": targetMS,
			"orig_ms":   origMS,
			"ratio":     ratio,
		}).Warn("stretch ratio clamped; clip will not exactly match the original cadence")
	}
	return ratio, clamped
}

// Fit stretches the clip at src to fit targetMS and writes the trimmed
// result to dst. A missing or zero-length source logs a skip and returns nil;
// partial pipelines are recoverable downstream.
func (f *Fitter) Fit(ctx context.Context, src, dst string, targetMS int) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		f.log.WithField("clip", src).Warn("missing clip, skipping stretch")
		return nil
	}

	buf, err := wave.Load(src)
	if err != nil {
		return fmt.Errorf("load clip: %w", err)
	}
	origMS := buf.DurationMS()
	if origMS == 0 || targetMS <= 0 {
		f.log.WithFields(logrus.Fields{
			"clip":      src,
			"orig_ms":   origMS,
			"target_ms": targetMS,
		}).Warn("degenerate clip duration, skipping stretch")
		return nil
	}

	ratio, _ := f.Ratio(targetMS, origMS)
	if err := f.stretcher.Stretch(ctx, src, dst, ratio); err != nil {
		return fmt.Errorf("stretch %s: %w", src, err)
	}

	// Hard-trim to the target so overlay offsets stay valid. Never pad:
	// the background bed supplies ambience for any shortfall.
	stretched, err := wave.Load(dst)
	if err != nil {
		return fmt.Errorf("load stretched clip: %w", err)
	}
	trimmed := stretched.TrimMS(targetMS)
	if err := trimmed.Store(dst); err != nil {
		return fmt.Errorf("store trimmed clip: %w", err)
	}

	if got := trimmed.DurationMS(); float64(got) < shortResultThreshold*float64(targetMS) {
		f.log.WithFields(logrus.Fields{
			"clip":      dst,
			"got_ms":    got,
			"target_ms": targetMS,
		}).Warn("stretched clip is suspiciously short of its target")
	}
	return nil
}

// FitTimeline stretches every utterance's voice-converted clip to its
// original duration, writing the results into the stretched stage. Missing
// clips are skipped with a warning so partial runs still produce output.
func (f *Fitter) FitTimeline(ctx context.Context, tl timeline.Timeline, root string) error {
	indices := tl.SpeakerIndices()
	for _, sp := range tl.Speakers() {
		if err := os.MkdirAll(clip.StageDir(root, sp, clip.StageStretched), 0o755); err != nil {
			return fmt.Errorf("create stretched dir: %w", err)
		}
	}
	for i, u := range tl {
		src := clip.Path(root, u.Speaker, clip.StageConverted, indices[i])
		dst := clip.Path(root, u.Speaker, clip.StageStretched, indices[i])
		if err := f.Fit(ctx, src, dst, u.DurationMS()); err != nil {
			return err
		}
	}
	return nil
}
