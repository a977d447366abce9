// Package candidate collects scored placements into deterministic
// top-K and non-maximum-suppressed result sets.
package candidate

import "sort"

// Peak is a scored placement at a pyramid level and angle index.
type Peak struct {
	X, Y     int
	AngleIdx int
	Score    float64
}

// less implements the canonical ordering used everywhere candidates are
// ranked or tie-broken: score descending, then y, x, angle_idx ascending.
func less(a, b Peak) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	if a.X != b.X {
		return a.X < b.X
	}
	return a.AngleIdx < b.AngleIdx
}

// SortCanonical sorts peaks in place by the canonical ordering.
func SortCanonical(peaks []Peak) {
	sort.SliceStable(peaks, func(i, j int) bool { return less(peaks[i], peaks[j]) })
}

// chebyshev returns the Chebyshev (infinity-norm) distance between two
// placements' (x, y) positions.
func chebyshev(a, b Peak) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// NMS2D greedily suppresses peaks within radius (Chebyshev distance) of a
// higher-ranked peak. Peaks are first sorted canonically so the winner of
// any cluster is always the best-scoring one (ties broken by position).
// radius <= 0 performs no suppression, only the canonical sort.
func NMS2D(peaks []Peak, radius int) []Peak {
	sorted := make([]Peak, len(peaks))
	copy(sorted, peaks)
	SortCanonical(sorted)
	if radius <= 0 {
		return sorted
	}

	var kept []Peak
	for _, p := range sorted {
		suppressed := false
		for _, k := range kept {
			if chebyshev(p, k) <= radius {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, p)
		}
	}
	return kept
}

// TopK retains at most k peaks, in canonical order. Insertion is O(k) per
// offered peak via a linear scan for the current minimum, which is fine for
// the small k values used in practice (tens, not thousands).
type TopK struct {
	k     int
	items []Peak
}

// NewTopK creates a TopK with the given capacity. k <= 0 accepts nothing.
func NewTopK(k int) *TopK {
	return &TopK{k: k}
}

// Offer proposes a peak for inclusion, evicting the current worst-ranked
// member if the set is already at capacity and full.
func (t *TopK) Offer(p Peak) {
	if t.k <= 0 {
		return
	}
	if len(t.items) < t.k {
		t.items = append(t.items, p)
		return
	}
	worstIdx := 0
	for i := 1; i < len(t.items); i++ {
		if less(t.items[worstIdx], t.items[i]) {
			worstIdx = i
		}
	}
	if less(p, t.items[worstIdx]) {
		t.items[worstIdx] = p
	}
}

// OfferAll offers every peak in peaks.
func (t *TopK) OfferAll(peaks []Peak) {
	for _, p := range peaks {
		t.Offer(p)
	}
}

// Peaks returns the retained peaks in canonical order.
func (t *TopK) Peaks() []Peak {
	out := make([]Peak, len(t.items))
	copy(out, t.items)
	SortCanonical(out)
	return out
}

// Len returns the number of peaks currently retained.
func (t *TopK) Len() int { return len(t.items) }
