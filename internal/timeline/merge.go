package timeline

// Merge coalesces adjacent utterances from the same speaker separated by a
// gap below gapSec into single longer utterances. Text and translation are
// joined with a single space between trimmed fragments.
//
// The fold is a single left-to-right scan over an already time-sorted
// timeline; input order is load-bearing. Merging the output again with the
// same threshold is a no-op.
//
// An empty timeline merges to an empty timeline.
func Merge(tl Timeline, gapSec float64) Timeline {
	if len(tl) == 0 {
		return Timeline{}
	}

	out := make(Timeline, 0, len(tl))
	cur := tl[0]
	for _, next := range tl[1:] {
		if next.Speaker == cur.Speaker && next.Start-cur.End < gapSec {
			if next.End > cur.End {
				cur.End = next.End
			}
			cur.Text = joinFragments(cur.Text, next.Text)
			cur.Translation = joinFragments(cur.Translation, next.Translation)
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}
