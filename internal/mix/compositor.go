// Package mix composites the final dubbed track: finished per-utterance
// clips are overlaid onto the background bed at their original absolute
// offsets.
package mix

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/clip"
	"github.com/alnah/go-dub/internal/timeline"
	"github.com/alnah/go-dub/internal/wave"
)

// FinalMixFile is the name of the composited track inside a video's working
// directory.
const FinalMixFile = "final_mix.wav"

// Compositor overlays stretched, voice-converted utterance clips onto a
// background waveform.
type Compositor struct {
	log *logrus.Entry
}

// CompositorOption configures a Compositor.
type CompositorOption func(*Compositor)

// WithCompositorLogger sets the logger.
func WithCompositorLogger(log *logrus.Entry) CompositorOption {
	return func(c *Compositor) { c.log = log }
}

// NewCompositor creates a Compositor.
func NewCompositor(opts ...CompositorOption) *Compositor {
	c := &Compositor{log: logrus.NewEntry(logrus.StandardLogger())}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mix returns a copy of background with every utterance's finished clip
// overlaid at its absolute start offset. Clips longer than their slot are
// truncated to it; shorter clips leave a true gap, since the background
// already supplies ambience. A missing clip keeps background-only audio for
// its interval: partial output is still useful.
//
// Utterances from a merged timeline never overlap in time, so overlay order
// does not affect the result.
func (c *Compositor) Mix(background *wave.Buffer, tl timeline.Timeline, root string) (*wave.Buffer, error) {
	out := background.Clone()
	indices := tl.SpeakerIndices()
	missing := 0

	for i, u := range tl {
		path := clip.Path(root, u.Speaker, clip.StageStretched, indices[i])
		if _, err := os.Stat(path); os.IsNotExist(err) {
			c.log.WithFields(logrus.Fields{
				"clip":      path,
				"utterance": u.String(),
			}).Warn("missing finished clip, interval keeps background only")
			missing++
			continue
		}

		buf, err := wave.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load finished clip %s: %w", path, err)
		}
		if slot := u.DurationMS(); buf.DurationMS() > slot {
			buf = buf.TrimMS(slot)
		}
		if err := out.Overlay(buf, u.StartMS()); err != nil {
			return nil, fmt.Errorf("overlay %s: %w", path, err)
		}
	}

	c.log.WithFields(logrus.Fields{
		"utterances": len(tl),
		"missing":    missing,
	}).Info("composited final track")
	return out, nil
}

// MixToFile composites the track and writes it to outPath in one shot. The
// file appears only after every overlay has been applied.
func (c *Compositor) MixToFile(background *wave.Buffer, tl timeline.Timeline, root, outPath string) error {
	out, err := c.Mix(background, tl, root)
	if err != nil {
		return err
	}
	if err := out.Store(outPath); err != nil {
		return fmt.Errorf("store final mix: %w", err)
	}
	return nil
}
