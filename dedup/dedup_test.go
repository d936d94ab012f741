package dedup

import (
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	text := "great value for the price and fast delivery"
	if Fingerprint(text) != Fingerprint(text) {
		t.Error("identical texts produced different fingerprints")
	}
}

func TestFingerprint_SimilarTexts(t *testing.T) {
	fp1 := Fingerprint("great value for the price and fast delivery")
	fp2 := Fingerprint("great value for the price and quick delivery")

	if dist := Distance(fp1, fp2); dist > 10 {
		t.Errorf("similar texts have too large distance: %d", dist)
	}
}

func TestFingerprint_DifferentTexts(t *testing.T) {
	fp1 := Fingerprint("great value for the price and fast delivery")
	fp2 := Fingerprint("the battery died within a week and support never answered")

	if dist := Distance(fp1, fp2); dist < 5 {
		t.Errorf("very different texts have too small distance: %d", dist)
	}
}

func TestFingerprint_EmptyInput(t *testing.T) {
	if fp := Fingerprint(""); fp != 0 {
		t.Errorf("empty input should produce fingerprint 0, got: %064b", fp)
	}
	if fp := Fingerprint("   \t\n  "); fp != 0 {
		t.Errorf("whitespace-only input should produce fingerprint 0, got: %064b", fp)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTracker_RepeatedReview(t *testing.T) {
	tr := NewTracker()

	if tr.Seen("alice", "2021-03-12", "Loved it, would buy again.") {
		t.Fatal("first observation must not count as seen")
	}
	if !tr.Seen("alice", "2021-03-12", "Loved it, would buy again.") {
		t.Error("identical review must count as seen")
	}
}

func TestTracker_SameTextDifferentReviewer(t *testing.T) {
	tr := NewTracker()

	tr.Seen("alice", "2021-03-12", "Great product")
	if tr.Seen("bob", "2021-03-12", "Great product") {
		t.Error("same text from a different reviewer is a distinct review")
	}
}

func TestTracker_SameReviewerDifferentDate(t *testing.T) {
	tr := NewTracker()

	tr.Seen("alice", "2021-03-12", "Great product")
	if tr.Seen("alice", "2021-06-01", "Great product") {
		t.Error("same reviewer on a different date is a distinct review")
	}
}

func TestTracker_NearIdenticalText(t *testing.T) {
	tr := NewTracker()

	tr.Seen("alice", "2021-03-12", "Loved it would definitely buy again from this seller")
	if !tr.Seen("alice", "2021-03-12", "Loved it  would definitely buy again from this seller") {
		t.Error("whitespace-only variation must count as the same review")
	}
}
