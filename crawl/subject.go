package crawl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/crawlworks/reviewharvest/models"
)

// SubjectKind selects the site profile and pagination protocol.
type SubjectKind int

const (
	// KindMovie is a movie review listing: token-based pagination,
	// permalink-fetched review bodies.
	KindMovie SubjectKind = iota

	// KindProduct is a product page with inline reviews: counter-based
	// JSON AJAX pagination plus a product metadata block.
	KindProduct
)

const (
	movieBaseURL           = "https://www.imdb.com"
	productReviewsEndpoint = "https://www.shopclues.com/ajaxCall/getReviews"
)

var (
	reMovieID   = regexp.MustCompile(`(tt\d+)`)
	reProductID = regexp.MustCompile(`(\d+)\.html`)
)

// Subject is a canonicalized crawl target.
type Subject struct {
	Kind SubjectKind

	// ID is the canonical identifier: a ttNNN movie id or a numeric
	// product id.
	ID string

	// PageURL is the first page to fetch.
	PageURL string
}

// ReviewsURL is the review listing a token-paginated subject hangs its
// continuation endpoint off of.
func (s Subject) ReviewsURL() string {
	return fmt.Sprintf("%s/title/%s/reviews", movieBaseURL, s.ID)
}

// TitleURL is the subject's main page, used for the title lookup.
func (s Subject) TitleURL() string {
	return fmt.Sprintf("%s/title/%s/", movieBaseURL, s.ID)
}

// ResolveSubject canonicalizes a raw subject: a bare movie id, a URL
// containing one, or a product URL. This is the single eager validation
// performed before any network access; anything unrecognizable is a hard
// INVALID_SUBJECT failure.
func ResolveSubject(raw string) (Subject, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "tt") && reMovieID.FindString(raw) == raw {
		s := Subject{Kind: KindMovie, ID: raw}
		s.PageURL = s.ReviewsURL()
		return s, nil
	}

	if m := reProductID.FindStringSubmatch(raw); m != nil {
		return Subject{Kind: KindProduct, ID: m[1], PageURL: raw}, nil
	}

	if id := reMovieID.FindString(raw); id != "" {
		s := Subject{Kind: KindMovie, ID: id}
		s.PageURL = s.ReviewsURL()
		return s, nil
	}

	return Subject{}, models.NewCrawlError(
		models.ErrCodeInvalidSubject,
		fmt.Sprintf("unrecognized subject %q: expected a ttNNN movie id, a movie URL, or a product URL", raw),
		nil,
	)
}
