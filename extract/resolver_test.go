package extract

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

func TestResolve_FirstMatchWins(t *testing.T) {
	doc := mustDoc(t, `<div><span class="a">primary</span><span class="b">secondary</span></div>`)

	value, ok := Resolve(doc.Selection, []Rule{Sel("span.a"), Sel("span.b")})
	if !ok {
		t.Fatal("expected a match")
	}
	if value != "primary" {
		t.Errorf("expected first rule to win, got %q", value)
	}
}

func TestResolve_FallsThroughMissingRules(t *testing.T) {
	doc := mustDoc(t, `<div><span class="b">fallback</span></div>`)

	value, ok := Resolve(doc.Selection, []Rule{Sel("span.a"), Sel("span.missing"), Sel("span.b")})
	if !ok || value != "fallback" {
		t.Errorf("expected fallback match, got %q (ok=%v)", value, ok)
	}
}

func TestResolve_EmptyTextDoesNotMatch(t *testing.T) {
	doc := mustDoc(t, `<div><span class="a">   </span><span class="b">real</span></div>`)

	value, ok := Resolve(doc.Selection, []Rule{Sel("span.a"), Sel("span.b")})
	if !ok || value != "real" {
		t.Errorf("whitespace-only node should not match, got %q (ok=%v)", value, ok)
	}
}

func TestResolve_NoRulesMatch(t *testing.T) {
	doc := mustDoc(t, `<div><p>nothing relevant</p></div>`)

	value, ok := Resolve(doc.Selection, []Rule{Sel("span.a"), Sel("span.b")})
	if ok {
		t.Errorf("expected no match, got %q", value)
	}
	if value != "" {
		t.Errorf("expected empty value on miss, got %q", value)
	}
}

func TestResolve_AttributeRule(t *testing.T) {
	doc := mustDoc(t, `<div><a class="perma" href="/review/rw1/">link</a></div>`)

	value, ok := Resolve(doc.Selection, []Rule{Attr("a.perma", "href")})
	if !ok || value != "/review/rw1/" {
		t.Errorf("expected href value, got %q (ok=%v)", value, ok)
	}
}

func TestResolve_MissingAttributeDoesNotMatch(t *testing.T) {
	doc := mustDoc(t, `<div><a class="perma">no href</a></div>`)

	if value, ok := Resolve(doc.Selection, []Rule{Attr("a.perma", "href")}); ok {
		t.Errorf("missing attribute should not match, got %q", value)
	}
}

func TestResolve_TransformEmptyingValueDoesNotMatch(t *testing.T) {
	doc := mustDoc(t, `<div><span class="a">(2001)</span><span class="b">kept</span></div>`)

	value, ok := Resolve(doc.Selection, []Rule{Sel("span.a", StripYear), Sel("span.b")})
	if !ok || value != "kept" {
		t.Errorf("transformed-away value should fall through, got %q (ok=%v)", value, ok)
	}
}

func TestResolve_MalformedMarkup(t *testing.T) {
	// Unclosed tags must not break resolution; the parser is best-effort.
	doc := mustDoc(t, `<div><span class="a">value<div><p>`)

	value, ok := Resolve(doc.Selection, []Rule{Sel("span.a")})
	if !ok || value != "value" {
		t.Errorf("expected match on malformed markup, got %q (ok=%v)", value, ok)
	}
}

func TestFieldStrategy_SentinelOnMiss(t *testing.T) {
	doc := mustDoc(t, `<div></div>`)

	f := FieldStrategy{Rules: []Rule{Sel("span.a")}, Sentinel: "N/A"}
	value, ok := f.Apply(doc.Selection)
	if ok {
		t.Error("expected no match")
	}
	if value != "N/A" {
		t.Errorf("expected sentinel, got %q", value)
	}
}

func TestFieldStrategy_NoRulesAlwaysSentinel(t *testing.T) {
	doc := mustDoc(t, `<div><span>anything</span></div>`)

	f := FieldStrategy{Sentinel: "N/A"}
	if value, ok := f.Apply(doc.Selection); ok || value != "N/A" {
		t.Errorf("rule-less strategy must always sentinel, got %q (ok=%v)", value, ok)
	}
}
