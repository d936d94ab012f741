// Package dedup suppresses reviews that reappear across pagination pages.
// Counter-paginated review endpoints can serve overlapping pages: a review
// posted between two fetches shifts older reviews onto the next page, so
// the same review shows up twice in one crawl.
package dedup

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// DefaultThreshold is the Hamming distance at or below which two review
// texts are treated as the same review. Sites sometimes re-render the same
// review with minor whitespace or truncation differences, so exact byte
// equality is too strict.
const DefaultThreshold = 3

type seenReview struct {
	reviewer string
	date     string
	fp       uint64
}

// Tracker remembers the reviews observed during a single crawl. A review
// counts as seen when an earlier review has the same reviewer and date and
// a near-identical text fingerprint. Not safe for concurrent use; each
// crawl owns its own Tracker.
type Tracker struct {
	threshold int
	seen      []seenReview
}

// NewTracker creates a Tracker using DefaultThreshold.
func NewTracker() *Tracker {
	return &Tracker{threshold: DefaultThreshold}
}

// Seen reports whether a near-identical review was already observed, and
// records this one if not.
func (t *Tracker) Seen(reviewer, date, text string) bool {
	fp := Fingerprint(text)
	for _, s := range t.seen {
		if s.reviewer == reviewer && s.date == date && Similar(s.fp, fp, t.threshold) {
			return true
		}
	}
	t.seen = append(t.seen, seenReview{reviewer: reviewer, date: date, fp: fp})
	return false
}

// Fingerprint computes a 64-bit SimHash of review text: FNV-64a over
// word-level tokens accumulated into a bit vector. Whitespace-only input
// yields 0.
func Fingerprint(text string) uint64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits of
// each other.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
