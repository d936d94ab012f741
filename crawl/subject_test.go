package crawl

import (
	"testing"

	"github.com/crawlworks/reviewharvest/models"
)

func TestResolveSubject_BareMovieID(t *testing.T) {
	s, err := ResolveSubject("tt0099685")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind != KindMovie || s.ID != "tt0099685" {
		t.Errorf("unexpected subject: %+v", s)
	}
	if s.PageURL != "https://www.imdb.com/title/tt0099685/reviews" {
		t.Errorf("unexpected first-page URL: %s", s.PageURL)
	}
}

func TestResolveSubject_MovieURLMatchesBareID(t *testing.T) {
	fromID, err := ResolveSubject("tt0099685")
	if err != nil {
		t.Fatalf("bare id: %v", err)
	}
	fromURL, err := ResolveSubject("https://www.imdb.com/title/tt0099685/?ref_=nv_sr_1")
	if err != nil {
		t.Fatalf("url: %v", err)
	}

	if fromID.ID != fromURL.ID {
		t.Errorf("canonical ids differ: %q vs %q", fromID.ID, fromURL.ID)
	}
	if fromID.PageURL != fromURL.PageURL {
		t.Errorf("fetch targets differ: %q vs %q", fromID.PageURL, fromURL.PageURL)
	}
}

func TestResolveSubject_ProductURL(t *testing.T) {
	s, err := ResolveSubject("https://www.shopclues.com/cool-gadget-123456.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind != KindProduct || s.ID != "123456" {
		t.Errorf("unexpected subject: %+v", s)
	}
	if s.PageURL != "https://www.shopclues.com/cool-gadget-123456.html" {
		t.Errorf("product first page must be the product URL itself, got %s", s.PageURL)
	}
}

func TestResolveSubject_Invalid(t *testing.T) {
	_, err := ResolveSubject("definitely not a subject")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !models.HasCode(err, models.ErrCodeInvalidSubject) {
		t.Errorf("expected INVALID_SUBJECT, got %v", err)
	}
}
