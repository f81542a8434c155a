package clip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-dub/internal/format"
	"github.com/alnah/go-dub/internal/timeline"
	"github.com/alnah/go-dub/internal/wave"
)

// DefaultPadMS is the ceiling for trailing padding. Extending a cut a little
// into the following silence captures natural trailing breath and room tone,
// which makes better voice-conversion reference material.
const DefaultPadMS = 500

// Slicer cuts a continuous vocals track into per-utterance and per-speaker
// clips addressed by the timeline.
type Slicer struct {
	padMS int
	log   *logrus.Entry
}

// SlicerOption configures a Slicer.
type SlicerOption func(*Slicer)

// WithPadMS sets the trailing-pad ceiling in milliseconds. Zero disables
// padding entirely.
func WithPadMS(ms int) SlicerOption {
	return func(s *Slicer) {
		if ms >= 0 {
			s.padMS = ms
		}
	}
}

// WithSlicerLogger sets the logger.
func WithSlicerLogger(log *logrus.Entry) SlicerOption {
	return func(s *Slicer) { s.log = log }
}

// NewSlicer creates a Slicer with the default trailing pad.
func NewSlicer(opts ...SlicerOption) *Slicer {
	s := &Slicer{
		padMS: DefaultPadMS,
		log:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Slice cuts every utterance of tl out of the vocals track and writes the
// clips under root, one subtree per speaker. It also writes each speaker's
// concatenated voice track. Speakers own disjoint subtrees, so they are
// written in parallel.
//
// Each cut covers [start, end) plus trailing padding: up to the pad ceiling,
// bounded by the gap to the next utterance in the timeline (any speaker) or
// by end of track for the last one. Padding never overruns the next
// utterance.
func (s *Slicer) Slice(ctx context.Context, tl timeline.Timeline, vocals *wave.Buffer, root string) error {
	if err := tl.Validate(); err != nil {
		return fmt.Errorf("slice: %w", err)
	}

	ends := s.paddedEnds(tl, vocals.DurationMS())
	indices := tl.SpeakerIndices()
	groups := tl.BySpeaker()

	s.log.WithFields(logrus.Fields{
		"utterances": len(tl),
		"speakers":   len(groups),
	}).Info("slicing vocals track")

	g, _ := errgroup.WithContext(ctx)
	for _, sp := range tl.Speakers() {
		g.Go(func() error {
			return s.sliceSpeaker(tl, sp, groups[sp], indices, ends, vocals, root)
		})
	}
	return g.Wait()
}

// paddedEnds computes the effective cut end for every utterance: the
// utterance end extended by at most padMS, clamped to the next utterance's
// start and to the end of the track.
func (s *Slicer) paddedEnds(tl timeline.Timeline, trackMS int) []int {
	ends := make([]int, len(tl))
	for i, u := range tl {
		limit := trackMS
		if i+1 < len(tl) {
			limit = tl[i+1].StartMS()
		}
		end := min(u.EndMS()+s.padMS, limit)
		if end < u.EndMS() {
			// Overlapping neighbor; keep the utterance's own bounds.
			end = u.EndMS()
		}
		ends[i] = end
	}
	return ends
}

// sliceSpeaker writes one speaker's utterance clips and concatenated track.
func (s *Slicer) sliceSpeaker(
	tl timeline.Timeline,
	sp timeline.SpeakerID,
	positions []int,
	indices []int,
	ends []int,
	vocals *wave.Buffer,
	root string,
) error {
	if err := os.MkdirAll(StageDir(root, sp, StageUtterance), 0o755); err != nil {
		return fmt.Errorf("create speaker dir: %w", err)
	}

	cuts := make([]*wave.Buffer, 0, len(positions))
	for _, pos := range positions {
		u := tl[pos]
		cut := vocals.SliceMS(u.StartMS(), ends[pos])
		path := Path(root, sp, StageUtterance, indices[pos])
		if err := cut.Store(path); err != nil {
			return fmt.Errorf("store utterance clip: %w", err)
		}
		s.log.WithFields(logrus.Fields{
			"speaker": sp,
			"at":      format.Seconds(u.Start),
			"clip":    filepath.Base(path),
		}).Debug("cut utterance")
		cuts = append(cuts, cut)
	}

	track, err := wave.Concat(cuts...)
	if err != nil {
		return fmt.Errorf("assemble speaker %s track: %w", sp, err)
	}
	if err := track.Store(SpeakerTrackPath(root, sp)); err != nil {
		return fmt.Errorf("store speaker %s track: %w", sp, err)
	}

	s.log.WithFields(logrus.Fields{
		"speaker": sp,
		"clips":   len(cuts),
	}).Info("sliced speaker")
	return nil
}
