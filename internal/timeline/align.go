package timeline

// Align reconciles two independently timed segmentations into one
// speaker-labeled timeline. Each text segment is assigned the speaker of the
// diarization segment with maximal temporal overlap; segments with zero
// overlap against every diarization segment are discarded rather than
// guessed at, favoring speaker attribution over completeness.
//
// Tie-break: diarization segments are scanned once per text segment in
// arrival order and only a strictly greater overlap replaces the current
// best, so the first maximal overlap wins.
//
// The very first aligned utterance may have its start widened to the matched
// diarization segment's start so leading silence is not truncated; all later
// utterances keep the text segment's own start.
//
// Returns the aligned timeline and the number of discarded text segments.
// Empty inputs yield an empty timeline, not an error.
func Align(texts []TextSegment, speakers []SpeakerSegment) (Timeline, int) {
	var aligned Timeline
	discarded := 0

	for _, ts := range texts {
		best := -1
		bestOverlap := 0.0
		for i, ss := range speakers {
			if o := overlap(ts.Start, ts.End, ss.Start, ss.End); o > bestOverlap {
				bestOverlap = o
				best = i
			}
		}
		if best < 0 {
			discarded++
			continue
		}

		start := ts.Start
		if len(aligned) == 0 && speakers[best].Start < start {
			start = speakers[best].Start
		}
		aligned = append(aligned, Utterance{
			Speaker: speakers[best].Speaker,
			Start:   start,
			End:     ts.End,
			Text:    ts.Text,
		})
	}

	return aligned, discarded
}

// overlap returns the length of the intersection of [s1,e1) and [s2,e2),
// or zero when the intervals are disjoint.
func overlap(s1, e1, s2, e2 float64) float64 {
	o := min(e1, e2) - max(s1, s2)
	if o < 0 {
		return 0
	}
	return o
}
