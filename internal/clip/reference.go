package clip

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-dub/internal/timeline"
	"github.com/alnah/go-dub/internal/wave"
)

// DefaultReferenceWindow is the number of same-speaker neighbors taken on
// each side of an utterance when building its reference clip.
const DefaultReferenceWindow = 1

// ReferenceBuilder assembles, for each utterance, a short reference clip
// from that utterance's own cut plus up to window neighbors before and after
// it in the same speaker's stream. The voice-conversion model conditions on
// these clips.
type ReferenceBuilder struct {
	window int
	log    *logrus.Entry
}

// ReferenceOption configures a ReferenceBuilder.
type ReferenceOption func(*ReferenceBuilder)

// WithWindow sets the symmetric neighbor window size.
func WithWindow(w int) ReferenceOption {
	return func(b *ReferenceBuilder) {
		if w >= 0 {
			b.window = w
		}
	}
}

// WithReferenceLogger sets the logger.
func WithReferenceLogger(log *logrus.Entry) ReferenceOption {
	return func(b *ReferenceBuilder) { b.log = log }
}

// NewReferenceBuilder creates a ReferenceBuilder with the default window.
func NewReferenceBuilder(opts ...ReferenceOption) *ReferenceBuilder {
	b := &ReferenceBuilder{
		window: DefaultReferenceWindow,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build writes one reference clip per utterance of tl under root. It reads
// the utterance clips the Slicer produced; run it after Slice. Speakers are
// independent and built in parallel.
func (b *ReferenceBuilder) Build(ctx context.Context, tl timeline.Timeline, root string) error {
	groups := tl.BySpeaker()

	g, _ := errgroup.WithContext(ctx)
	for _, sp := range tl.Speakers() {
		count := len(groups[sp])
		g.Go(func() error {
			return b.buildSpeaker(sp, count, root)
		})
	}
	return g.Wait()
}

// buildSpeaker writes the reference clips for one speaker's stream of count
// utterances. The window is clipped at the stream boundaries; an utterance
// with no neighbors references its own clip alone.
func (b *ReferenceBuilder) buildSpeaker(sp timeline.SpeakerID, count int, root string) error {
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrNoUtterances, sp)
	}
	if err := os.MkdirAll(StageDir(root, sp, StageReference), 0o755); err != nil {
		return fmt.Errorf("create reference dir: %w", err)
	}

	// Load each clip once; windows of adjacent utterances overlap heavily.
	clips := make([]*wave.Buffer, count+1) // 1-based by utterance index
	for idx := 1; idx <= count; idx++ {
		buf, err := wave.Load(Path(root, sp, StageUtterance, idx))
		if err != nil {
			return fmt.Errorf("load utterance clip %s/%d: %w", sp, idx, err)
		}
		clips[idx] = buf
	}

	for idx := 1; idx <= count; idx++ {
		lo := max(1, idx-b.window)
		hi := min(count, idx+b.window)
		ref, err := wave.Concat(clips[lo : hi+1]...)
		if err != nil {
			return fmt.Errorf("assemble reference %s/%d: %w", sp, idx, err)
		}
		if err := ref.Store(Path(root, sp, StageReference, idx)); err != nil {
			return fmt.Errorf("store reference %s/%d: %w", sp, idx, err)
		}
	}

	b.log.WithFields(logrus.Fields{
		"speaker":    sp,
		"references": count,
		"window":     b.window,
	}).Info("built reference clips")
	return nil
}
