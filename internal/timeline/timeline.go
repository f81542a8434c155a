// Package timeline holds the canonical representation of a dubbed dialogue
// track: an ordered list of speaker-attributed, time-bounded utterances.
// The timeline is the single source of truth for timing, speaker and text;
// every audio artifact downstream is derived from it and can be regenerated.
package timeline

import (
	"fmt"
	"math"
	"strings"
)

// SpeakerID identifies one detected voice within a video. Labels are assigned
// by the diarization service and carried unchanged through the whole pipeline;
// they are never re-derived from a position in a collection.
type SpeakerID string

// Utterance is the atomic unit of the timeline: one speaker-attributed,
// time-bounded piece of dialogue. Start and End are in seconds.
type Utterance struct {
	Speaker     SpeakerID `json:"speaker"`
	Start       float64   `json:"start"`
	End         float64   `json:"end"`
	Text        string    `json:"text"`
	Translation string    `json:"translation,omitempty"`
}

// StartMS returns the utterance start rounded to whole milliseconds.
func (u Utterance) StartMS() int {
	return int(math.Round(u.Start * 1000))
}

// EndMS returns the utterance end rounded to whole milliseconds.
func (u Utterance) EndMS() int {
	return int(math.Round(u.End * 1000))
}

// DurationMS returns the utterance length in whole milliseconds.
func (u Utterance) DurationMS() int {
	return u.EndMS() - u.StartMS()
}

// String returns a human-readable representation for logging.
func (u Utterance) String() string {
	return fmt.Sprintf("[%s] %.2f-%.2f %q", u.Speaker, u.Start, u.End, u.Text)
}

// TextSegment is one transcribed interval from the speech recognition
// service. It carries no speaker attribution.
type TextSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SpeakerSegment is one "who spoke when" interval from the diarization
// service. It shares the time axis with TextSegment but is independently
// segmented; boundaries need not coincide.
type SpeakerSegment struct {
	Speaker SpeakerID `json:"speaker"`
	Start   float64   `json:"start"`
	End     float64   `json:"end"`
}

// Timeline is an ordered sequence of utterances. Insertion order is
// chronological order.
type Timeline []Utterance

// Validate checks the structural invariants of an ordered timeline:
// every utterance has end > start and start >= 0, and starts are
// non-decreasing across the sequence.
func (tl Timeline) Validate() error {
	for i, u := range tl {
		if u.Start < 0 {
			return fmt.Errorf("%w: utterance %d starts at %f", ErrInvalidTimeline, i, u.Start)
		}
		if u.End <= u.Start {
			return fmt.Errorf("%w: utterance %d has end %f <= start %f", ErrInvalidTimeline, i, u.End, u.Start)
		}
		if i > 0 && u.Start < tl[i-1].Start {
			return fmt.Errorf("%w: utterance %d starts before utterance %d", ErrInvalidTimeline, i, i-1)
		}
	}
	return nil
}

// Speakers returns the distinct speakers in first-appearance order.
func (tl Timeline) Speakers() []SpeakerID {
	seen := make(map[SpeakerID]bool, 4)
	var out []SpeakerID
	for _, u := range tl {
		if !seen[u.Speaker] {
			seen[u.Speaker] = true
			out = append(out, u.Speaker)
		}
	}
	return out
}

// SpeakerIndices assigns each utterance its 1-based position within its own
// speaker's stream, in timeline order. The result is parallel to tl and is
// what names per-utterance artifacts on disk; it must be recomputed whenever
// the timeline is rebuilt.
func (tl Timeline) SpeakerIndices() []int {
	counts := make(map[SpeakerID]int, 4)
	out := make([]int, len(tl))
	for i, u := range tl {
		counts[u.Speaker]++
		out[i] = counts[u.Speaker]
	}
	return out
}

// BySpeaker groups utterance positions by speaker, preserving timeline order
// within each group. Keys iterate in first-appearance order via Speakers.
func (tl Timeline) BySpeaker() map[SpeakerID][]int {
	out := make(map[SpeakerID][]int, 4)
	for i, u := range tl {
		out[u.Speaker] = append(out[u.Speaker], i)
	}
	return out
}

// joinFragments concatenates two text fragments with a single space,
// trimming surrounding whitespace first. Empty fragments disappear.
func joinFragments(a, b string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
