// Package pipeline sequences the dubbing stages: extract, separate,
// recognize, diarize, align, merge, translate, slice, references, synthesis,
// voice conversion, duration fitting, mixing and muxing. Every stage checks
// the artifact cache first, so an interrupted run resumes where it stopped.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/asr"
	"github.com/alnah/go-dub/internal/clip"
	"github.com/alnah/go-dub/internal/config"
	"github.com/alnah/go-dub/internal/diarize"
	"github.com/alnah/go-dub/internal/format"
	"github.com/alnah/go-dub/internal/lang"
	"github.com/alnah/go-dub/internal/mix"
	"github.com/alnah/go-dub/internal/stage"
	"github.com/alnah/go-dub/internal/stretch"
	"github.com/alnah/go-dub/internal/timeline"
	"github.com/alnah/go-dub/internal/translate"
	"github.com/alnah/go-dub/internal/tts"
	"github.com/alnah/go-dub/internal/voice"
	"github.com/alnah/go-dub/internal/wave"
)

// MediaTool is the ffmpeg surface the pipeline needs.
type MediaTool interface {
	ExtractAudio(ctx context.Context, videoPath, wavPath string) error
	MuxAudio(ctx context.Context, videoPath, audioPath, outPath string) error
}

// VocalSeparator splits a soundtrack into vocal and background stems.
type VocalSeparator interface {
	Separate(ctx context.Context, audioPath, outDir string) (vocals, background string, err error)
}

// Deps are the collaborators a Runner drives. All are required except
// noted; tests substitute fakes per stage.
type Deps struct {
	Media      MediaTool
	Separator  VocalSeparator
	Recognizer asr.Recognizer
	Diarizer   diarize.Diarizer
	Translator translate.Translator
	Synth      tts.Synthesizer
	Converter  voice.Converter
	Fitter     *stretch.Fitter
}

// Runner executes the dubbing pipeline over one work directory.
type Runner struct {
	cfg   *config.Root
	deps  Deps
	cache *stage.Cache
	log   *logrus.Entry
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCache overrides the stage cache (force mode comes in this way).
func WithCache(c *stage.Cache) RunnerOption {
	return func(r *Runner) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *logrus.Entry) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRunner builds a Runner. Stage methods only touch the collaborators
// they need, so a partial dependency set is fine for single-stage use;
// Run validates the full set up front.
func NewRunner(cfg *config.Root, deps Deps, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:   cfg,
		deps:  deps,
		cache: stage.NewCache(),
		log:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// validate checks that every collaborator a full run needs is present.
func (r *Runner) validate() error {
	for _, dep := range []struct {
		name string
		ok   bool
	}{
		{"media", r.deps.Media != nil},
		{"separator", r.deps.Separator != nil},
		{"recognizer", r.deps.Recognizer != nil},
		{"diarizer", r.deps.Diarizer != nil},
		{"translator", r.deps.Translator != nil},
		{"synthesizer", r.deps.Synth != nil},
		{"converter", r.deps.Converter != nil},
		{"fitter", r.deps.Fitter != nil},
	} {
		if !dep.ok {
			return fmt.Errorf("%w: %s", ErrMissingDep, dep.name)
		}
	}
	return nil
}

// Run executes the full pipeline for one video.
func (r *Runner) Run(ctx context.Context, videoPath string) error {
	if err := r.validate(); err != nil {
		return err
	}
	l := NewLayout(r.cfg.WorkDir, videoPath)
	if err := os.MkdirAll(l.Base, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	if !r.cache.Done("extract", l.ExtractedAudio()) {
		if err := r.deps.Media.ExtractAudio(ctx, videoPath, l.ExtractedAudio()); err != nil {
			return err
		}
	}

	if !r.cache.Done("separate", l.Vocals()) {
		if _, _, err := r.deps.Separator.Separate(ctx, l.ExtractedAudio(), l.SeparatedDir()); err != nil {
			return err
		}
	}

	if err := r.Recognize(ctx, l); err != nil {
		return err
	}
	if err := r.Diarize(ctx, l); err != nil {
		return err
	}
	if err := r.Align(l); err != nil {
		return err
	}
	if err := r.Merge(l); err != nil {
		return err
	}
	if err := r.Translate(ctx, l); err != nil {
		return err
	}
	if err := r.Slice(ctx, l); err != nil {
		return err
	}
	if err := r.References(ctx, l); err != nil {
		return err
	}
	if err := r.Synthesize(ctx, l); err != nil {
		return err
	}
	if err := r.ConvertVoices(ctx, l); err != nil {
		return err
	}
	if err := r.FitDurations(ctx, l); err != nil {
		return err
	}
	if err := r.Mix(l); err != nil {
		return err
	}

	out := l.DubbedVideo(videoPath)
	if !r.cache.Done("mux", out) {
		if err := r.deps.Media.MuxAudio(ctx, videoPath, l.FinalMix(), out); err != nil {
			return err
		}
	}
	fields := logrus.Fields{"output": out}
	if info, err := os.Stat(out); err == nil {
		fields["size"] = format.Size(info.Size())
	}
	r.log.WithFields(fields).Info("dubbing complete")
	return nil
}

// Recognize transcribes the vocal stem into timed segments.
func (r *Runner) Recognize(ctx context.Context, l Layout) error {
	if r.cache.Done("recognize", l.SegmentsPath()) {
		return nil
	}
	segments, err := r.deps.Recognizer.Recognize(ctx, l.Vocals(), lang.BaseCode(r.cfg.SourceLanguage))
	if err != nil {
		return err
	}
	r.log.WithField("segments", len(segments)).Info("speech recognized")
	return asr.SaveSegments(l.Base, segments)
}

// Diarize labels speaker turns on the vocal stem.
func (r *Runner) Diarize(ctx context.Context, l Layout) error {
	if r.cache.Done("diarize", l.TurnsPath()) {
		return nil
	}
	turns, err := r.deps.Diarizer.Diarize(ctx, l.Vocals(), lang.BaseCode(r.cfg.SourceLanguage))
	if err != nil {
		return err
	}
	r.log.WithField("turns", len(turns)).Info("speakers diarized")
	return diarize.SaveTurns(l.Base, turns)
}

// Align attaches speaker labels to recognition segments by maximal overlap.
func (r *Runner) Align(l Layout) error {
	if r.cache.Done("align", l.Transcript()) {
		return nil
	}
	segments, err := asr.LoadSegments(l.Base)
	if err != nil {
		return err
	}
	turns, err := diarize.LoadTurns(l.Base)
	if err != nil {
		return err
	}

	tl, discarded := timeline.Align(segments, turns)
	if discarded > 0 {
		r.log.WithField("discarded", discarded).
			Warn("segments without speaker overlap discarded")
	}
	r.log.WithFields(logrus.Fields{
		"utterances": len(tl),
		"speakers":   len(tl.Speakers()),
	}).Info("timeline aligned")
	return timeline.Save(tl, l.Transcript())
}

// Merge folds adjacent same-speaker utterances.
func (r *Runner) Merge(l Layout) error {
	if r.cache.Done("merge", l.Merged()) {
		return nil
	}
	tl, err := timeline.Load(l.Transcript())
	if err != nil {
		return err
	}
	merged := timeline.Merge(tl, r.cfg.MergeGapSeconds)
	r.log.WithFields(logrus.Fields{
		"before": len(tl),
		"after":  len(merged),
	}).Info("utterances merged")
	return timeline.Save(merged, l.Merged())
}

// Translate fills in translations on the merged timeline. Already
// translated utterances are left alone, so a resumed run only pays for
// what is missing.
func (r *Runner) Translate(ctx context.Context, l Layout) error {
	tl, err := timeline.Load(l.Merged())
	if err != nil {
		return err
	}
	if translated(tl) {
		r.log.Info("timeline already translated, skipping")
		return nil
	}

	r.log.WithFields(logrus.Fields{
		"from": lang.DisplayName(r.cfg.SourceLanguage),
		"to":   lang.DisplayName(r.cfg.TargetLanguage),
	}).Info("translating timeline")
	failed := translate.Apply(ctx, r.deps.Translator, tl,
		r.cfg.SourceLanguage, r.cfg.TargetLanguage, r.log)
	if failed > 0 {
		r.log.WithField("failed", failed).Warn("some utterances left untranslated")
	}
	return timeline.Save(tl, l.Merged())
}

// Slice cuts per-utterance clips and per-speaker tracks from the vocal stem.
func (r *Runner) Slice(ctx context.Context, l Layout) error {
	tl, err := timeline.Load(l.Merged())
	if err != nil {
		return err
	}
	if r.cache.Done("slice", speakerTracks(l, tl)...) {
		return nil
	}
	vocals, err := wave.Load(l.Vocals())
	if err != nil {
		return err
	}
	slicer := clip.NewSlicer(
		clip.WithPadMS(r.cfg.PadMS),
		clip.WithSlicerLogger(r.log))
	return slicer.Slice(ctx, tl, vocals, l.SpeakerAudio())
}

// References builds the windowed reference clip per utterance.
func (r *Runner) References(ctx context.Context, l Layout) error {
	tl, err := timeline.Load(l.Merged())
	if err != nil {
		return err
	}
	if r.cache.Done("references", stageClips(l, tl, clip.StageReference)...) {
		return nil
	}
	builder := clip.NewReferenceBuilder(
		clip.WithWindow(r.cfg.ReferenceWindow),
		clip.WithReferenceLogger(r.log))
	return builder.Build(ctx, tl, l.SpeakerAudio())
}

// Synthesize renders translated text to speech clips.
func (r *Runner) Synthesize(ctx context.Context, l Layout) error {
	tl, err := timeline.Load(l.Merged())
	if err != nil {
		return err
	}
	if r.cache.Done("tts", translatedClips(l, tl, clip.StageSynthesized)...) {
		return nil
	}
	voices := make([]openai.SpeechVoice, len(r.cfg.TTS.Voices))
	for i, v := range r.cfg.TTS.Voices {
		voices[i] = openai.SpeechVoice(v)
	}
	written, err := tts.SynthesizeTimeline(ctx, r.deps.Synth, tl, l.SpeakerAudio(), voices, r.log)
	if err != nil {
		return err
	}
	r.log.WithField("clips", written).Info("speech synthesized")
	return nil
}

// ConvertVoices personalizes synthesized clips with the speaker references.
func (r *Runner) ConvertVoices(ctx context.Context, l Layout) error {
	tl, err := timeline.Load(l.Merged())
	if err != nil {
		return err
	}
	if r.cache.Done("voice", translatedClips(l, tl, clip.StageConverted)...) {
		return nil
	}
	converted, err := voice.ConvertTimeline(ctx, r.deps.Converter, tl, l.SpeakerAudio(), r.log)
	if err != nil {
		return err
	}
	r.log.WithField("clips", converted).Info("voices converted")
	return nil
}

// FitDurations stretches converted clips into their timeline slots.
func (r *Runner) FitDurations(ctx context.Context, l Layout) error {
	tl, err := timeline.Load(l.Merged())
	if err != nil {
		return err
	}
	if r.cache.Done("stretch", translatedClips(l, tl, clip.StageStretched)...) {
		return nil
	}
	return r.deps.Fitter.FitTimeline(ctx, tl, l.SpeakerAudio())
}

// Mix overlays the fitted clips onto the background stem. A missing
// background stem falls back to silence of the vocal stem's length.
func (r *Runner) Mix(l Layout) error {
	if r.cache.Done("mix", l.FinalMix()) {
		return nil
	}
	tl, err := timeline.Load(l.Merged())
	if err != nil {
		return err
	}

	background, err := wave.Load(l.Background())
	if err != nil {
		vocals, verr := wave.Load(l.Vocals())
		if verr != nil {
			return fmt.Errorf("no background or vocal stem to mix onto: %w", err)
		}
		r.log.Warn("no background stem, mixing onto silence")
		background = wave.Silence(vocals.DurationMS(), vocals.Rate, vocals.Channels)
	}

	compositor := mix.NewCompositor(mix.WithCompositorLogger(r.log))
	if err := compositor.MixToFile(background, tl, l.SpeakerAudio(), l.FinalMix()); err != nil {
		return err
	}
	r.log.WithField("duration",
		format.Duration(time.Duration(background.DurationMS())*time.Millisecond)).
		Info("final mix written")
	return nil
}

// translated reports whether every utterance with text already carries a
// translation.
func translated(tl timeline.Timeline) bool {
	if len(tl) == 0 {
		return false
	}
	for _, utt := range tl {
		if utt.Text != "" && utt.Translation == "" {
			return false
		}
	}
	return true
}

// speakerTracks lists the per-speaker concatenated track paths.
func speakerTracks(l Layout, tl timeline.Timeline) []string {
	speakers := tl.Speakers()
	paths := make([]string, len(speakers))
	for i, sp := range speakers {
		paths[i] = clip.SpeakerTrackPath(l.SpeakerAudio(), sp)
	}
	return paths
}

// stageClips lists every utterance clip path for a stage.
func stageClips(l Layout, tl timeline.Timeline, st clip.Stage) []string {
	indices := tl.SpeakerIndices()
	paths := make([]string, len(tl))
	for i, utt := range tl {
		paths[i] = clip.Path(l.SpeakerAudio(), utt.Speaker, st, indices[i])
	}
	return paths
}

// translatedClips lists stage clip paths only for translated utterances,
// since untranslated ones never get synthesis products.
func translatedClips(l Layout, tl timeline.Timeline, st clip.Stage) []string {
	indices := tl.SpeakerIndices()
	var paths []string
	for i, utt := range tl {
		if utt.Translation == "" {
			continue
		}
		paths = append(paths, clip.Path(l.SpeakerAudio(), utt.Speaker, st, indices[i]))
	}
	return paths
}
