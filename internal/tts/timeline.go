package tts

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/clip"
	"github.com/alnah/go-dub/internal/timeline"
)

// SynthesizeTimeline renders every translated utterance into its synthesis
// clip under root. Utterances without a translation are skipped. Returns
// the number of clips written.
//
// Synthesis is sequential on purpose: the speech endpoint rate-limits
// aggressively and clips are small.
func SynthesizeTimeline(ctx context.Context, s Synthesizer, tl timeline.Timeline, root string, voices []openai.SpeechVoice, log *logrus.Entry) (int, error) {
	if err := tl.Validate(); err != nil {
		return 0, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	assignment, err := VoiceMap(tl, voices)
	if err != nil {
		return 0, err
	}
	indices := tl.SpeakerIndices()

	written := 0
	for i, utt := range tl {
		if utt.Translation == "" {
			log.WithField("utterance", utt.String()).Warn("no translation, skipping synthesis")
			continue
		}

		dir := clip.StageDir(root, utt.Speaker, clip.StageSynthesized)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return written, fmt.Errorf("create %s: %w", dir, err)
		}

		out := clip.Path(root, utt.Speaker, clip.StageSynthesized, indices[i])
		if err := s.Synthesize(ctx, utt.Translation, assignment[utt.Speaker], out); err != nil {
			return written, err
		}
		log.WithFields(logrus.Fields{
			"utterance": utt.String(),
			"voice":     assignment[utt.Speaker],
		}).Debug("utterance synthesized")
		written++
	}
	return written, nil
}
