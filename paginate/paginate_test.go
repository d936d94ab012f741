package paginate

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestTokenDriver_FindsKey(t *testing.T) {
	doc := mustDoc(t, `<div class="load-more-data" data-key="abc123"></div>`)
	d := TokenDriver{BaseURL: "https://example.com/title/tt1/reviews"}

	state := d.Next(doc, State{})
	if state.IsExhausted() {
		t.Fatal("expected a continuation state")
	}
	if state.Kind != KindToken {
		t.Errorf("expected token state, got %v", state.Kind)
	}
	want := "https://example.com/title/tt1/reviews/_ajax?paginationKey=abc123"
	if state.URL != want {
		t.Errorf("unexpected continuation URL:\ngot  %s\nwant %s", state.URL, want)
	}
}

func TestTokenDriver_ButtonParentFallback(t *testing.T) {
	doc := mustDoc(t, `<div data-key="k2"><button>Load  More</button></div>`)
	d := TokenDriver{BaseURL: "https://example.com/r"}

	state := d.Next(doc, State{})
	if state.IsExhausted() {
		t.Fatal("expected a continuation state from the button fallback")
	}
	if !strings.Contains(state.URL, "paginationKey=k2") {
		t.Errorf("expected key k2 in URL, got %s", state.URL)
	}
}

func TestTokenDriver_EscapesKey(t *testing.T) {
	doc := mustDoc(t, `<div class="load-more-data" data-key="a/b=c"></div>`)
	d := TokenDriver{BaseURL: "https://example.com/r"}

	state := d.Next(doc, State{})
	if !strings.Contains(state.URL, "paginationKey=a%2Fb%3Dc") {
		t.Errorf("key should be query-escaped, got %s", state.URL)
	}
}

func TestTokenDriver_NoKeyExhausts(t *testing.T) {
	doc := mustDoc(t, `<div class="reviews"><button>Unrelated</button></div>`)
	d := TokenDriver{BaseURL: "https://example.com/r"}

	if state := d.Next(doc, State{}); !state.IsExhausted() {
		t.Errorf("expected exhausted state, got %+v", state)
	}
}

func TestCounterDriver_Advances(t *testing.T) {
	d := CounterDriver{Endpoint: "https://example.com/ajaxCall/getReviews", ProductID: "123456"}

	// The initial HTML page counts as page 1; the first AJAX page is 2.
	s2 := d.Next(nil, State{Page: 1})
	if s2.Page != 2 {
		t.Errorf("expected page 2, got %d", s2.Page)
	}
	want := "https://example.com/ajaxCall/getReviews?product_id=123456&page=2"
	if s2.URL != want {
		t.Errorf("unexpected URL:\ngot  %s\nwant %s", s2.URL, want)
	}

	s3 := d.Next(nil, s2)
	if s3.Page != 3 || !strings.Contains(s3.URL, "page=3") {
		t.Errorf("expected page 3, got %+v", s3)
	}
}

func TestHasLoadMore(t *testing.T) {
	with := mustDoc(t, `<div class="load_more"><a id="moreReview">Load more reviews</a></div>`)
	without := mustDoc(t, `<div class="load_more"><a>something else</a></div>`)

	if !HasLoadMore(with) {
		t.Error("expected load-more affordance to be detected")
	}
	if HasLoadMore(without) {
		t.Error("expected no load-more affordance")
	}
}

func TestParsePayload(t *testing.T) {
	if html, ok := ParsePayload([]byte(`{"html": "<li>review</li>"}`)); !ok || html != "<li>review</li>" {
		t.Errorf("expected embedded fragment, got %q (ok=%v)", html, ok)
	}
	if _, ok := ParsePayload([]byte(`{"html": ""}`)); ok {
		t.Error("empty html payload must signal exhaustion")
	}
	if _, ok := ParsePayload([]byte(`{"other": "field"}`)); ok {
		t.Error("missing html payload must signal exhaustion")
	}
	if _, ok := ParsePayload([]byte(`not json`)); ok {
		t.Error("malformed payload must signal exhaustion")
	}
}

func TestExhaustedZeroValue(t *testing.T) {
	var s State
	if !s.IsExhausted() {
		t.Error("zero-value State must be exhausted")
	}
	if !Exhausted().IsExhausted() {
		t.Error("Exhausted() must be exhausted")
	}
}
