package voice

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/clip"
	"github.com/alnah/go-dub/internal/timeline"
)

// ConvertTimeline runs every synthesized clip through voice conversion
// against the matching speaker reference. Utterances without a synthesized
// clip (untranslated ones) are skipped with a warning. Returns the number
// of clips converted.
func ConvertTimeline(ctx context.Context, c Converter, tl timeline.Timeline, root string, log *logrus.Entry) (int, error) {
	if err := tl.Validate(); err != nil {
		return 0, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	indices := tl.SpeakerIndices()
	converted := 0
	for i, utt := range tl {
		source := clip.Path(root, utt.Speaker, clip.StageSynthesized, indices[i])
		if _, err := os.Stat(source); os.IsNotExist(err) {
			log.WithField("utterance", utt.String()).Warn("no synthesized clip, skipping conversion")
			continue
		}

		dir := clip.StageDir(root, utt.Speaker, clip.StageConverted)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return converted, fmt.Errorf("create %s: %w", dir, err)
		}

		target := clip.Path(root, utt.Speaker, clip.StageReference, indices[i])
		out := clip.Path(root, utt.Speaker, clip.StageConverted, indices[i])
		if err := c.Convert(ctx, source, target, out); err != nil {
			return converted, err
		}
		log.WithField("utterance", utt.String()).Debug("voice converted")
		converted++
	}
	return converted, nil
}
