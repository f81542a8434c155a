// Package translate is the machine-translation boundary. The core never
// calls the network from its own loops; translation happens once per
// pipeline run, utterance by utterance, with the rate-limit backoff policy
// applied per item.
package translate

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/apierr"
	"github.com/alnah/go-dub/internal/timeline"
)

// Translator translates a single piece of text between two languages.
// Implementations classify provider failures into apierr sentinels.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Backoff policy for rate-limited translation calls: 5 attempts total with
// exponentially doubling delay.
const (
	maxAttempts = 5
	baseDelay   = 1 * time.Second
	maxDelay    = 30 * time.Second
)

// Apply fills the Translation field of every utterance in tl, in place.
//
// Per-item failure policy: a rate-limit error is retried with exponential
// backoff up to the attempt bound; any other API error abandons that one
// utterance (its translation stays empty) and the batch continues.
// Utterances with empty text are skipped. Returns the number of utterances
// left untranslated.
func Apply(ctx context.Context, tr Translator, tl timeline.Timeline, sourceLang, targetLang string, log *logrus.Entry) int {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	failed := 0
	for i := range tl {
		if tl[i].Text == "" {
			continue
		}

		text := tl[i].Text
		translated, err := apierr.RetryWithBackoff(ctx,
			apierr.RetryConfig{MaxRetries: maxAttempts - 1, BaseDelay: baseDelay, MaxDelay: maxDelay},
			func() (string, error) {
				return tr.Translate(ctx, text, sourceLang, targetLang)
			},
			func(err error) bool { return errors.Is(err, apierr.ErrRateLimit) },
		)
		if err != nil {
			log.WithFields(logrus.Fields{
				"utterance": tl[i].String(),
				"error":     err,
			}).Error("translation failed, leaving utterance untranslated")
			tl[i].Translation = ""
			failed++
			continue
		}
		tl[i].Translation = translated
	}
	return failed
}
