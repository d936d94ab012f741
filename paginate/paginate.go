// Package paginate decides whether a next result page exists and how to
// request it. Two protocols are supported: an opaque continuation token
// embedded in the page markup, and an increasing counter against a JSON
// AJAX endpoint. The crawl loop treats both through the same State type.
package paginate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Kind tags a pagination State variant.
type Kind int

const (
	// KindExhausted is terminal: no further page can be derived.
	// It is the zero value so an empty State means "stop".
	KindExhausted Kind = iota
	KindToken
	KindCounter
)

// State identifies how to obtain the next page. Consumed and replaced on
// every crawl iteration; never shared between crawls.
type State struct {
	Kind Kind

	// URL is the fully-built request URL for the next fetch.
	// Empty when exhausted.
	URL string

	// Page is the page counter, meaningful for KindCounter only.
	Page int
}

// Exhausted returns the terminal state.
func Exhausted() State { return State{} }

// IsExhausted reports whether no further pages can be fetched.
func (s State) IsExhausted() bool { return s.Kind == KindExhausted }

// Driver derives the state for the following page from the page just
// fetched. Drivers never terminate a crawl on their own; they only signal
// exhaustion through the returned State.
type Driver interface {
	Next(doc *goquery.Document, prev State) State
}

var (
	selLoadMoreData = cascadia.MustCompile("div.load-more-data")
	selButton       = cascadia.MustCompile("button")
	selLoadMoreLink = cascadia.MustCompile("div.load_more a#moreReview")

	reLoadMore = regexp.MustCompile(`(?i)load\s+more`)
)

// TokenDriver implements token-based pagination: each page carries a
// "load more" affordance with an opaque key that parameterizes an AJAX
// continuation endpoint.
type TokenDriver struct {
	// BaseURL is the reviews listing URL the continuation endpoint hangs
	// off of, without a trailing slash.
	BaseURL string
}

// Next extracts the continuation token from the fetched page. A missing
// token means the listing is exhausted.
func (d TokenDriver) Next(doc *goquery.Document, _ State) State {
	key, ok := findPaginationKey(doc)
	if !ok {
		return Exhausted()
	}
	return State{
		Kind: KindToken,
		URL:  fmt.Sprintf("%s/_ajax?paginationKey=%s", d.BaseURL, url.QueryEscape(key)),
	}
}

// findPaginationKey locates the opaque continuation key: first the
// dedicated load-more container, then any "Load More" button whose parent
// carries the key. Sites have shipped both shapes.
func findPaginationKey(doc *goquery.Document) (string, bool) {
	if key, ok := doc.FindMatcher(selLoadMoreData).First().Attr("data-key"); ok && key != "" {
		return key, true
	}

	found := ""
	doc.FindMatcher(selButton).EachWithBreak(func(_ int, btn *goquery.Selection) bool {
		if !reLoadMore.MatchString(btn.Text()) {
			return true
		}
		if key, ok := btn.Parent().Attr("data-key"); ok && key != "" {
			found = key
			return false
		}
		return true
	})
	return found, found != ""
}

// CounterDriver implements counter-based pagination: subsequent pages are
// fetched from a JSON endpoint parameterized by a stable resource id and
// an increasing page number. Exhaustion cannot be read off the markup; it
// is signaled by the endpoint itself (empty payload, non-success status)
// or by an empty extracted batch, both observed by the crawl loop.
type CounterDriver struct {
	// Endpoint is the JSON AJAX endpoint, e.g.
	// "https://www.shopclues.com/ajaxCall/getReviews".
	Endpoint string

	// ProductID is the stable resource id extracted from the subject URL.
	ProductID string
}

// Next advances the counter. The first call (prev.Page == 0 counts the
// initial HTML page) yields page 2.
func (d CounterDriver) Next(_ *goquery.Document, prev State) State {
	page := prev.Page
	if page < 1 {
		page = 1
	}
	page++
	return State{
		Kind: KindCounter,
		URL:  fmt.Sprintf("%s?product_id=%s&page=%d", d.Endpoint, url.QueryEscape(d.ProductID), page),
		Page: page,
	}
}

// HasLoadMore reports whether a product page exposes the "load more
// reviews" affordance that marks counter-based pagination. Without it the
// first page is the whole listing.
func HasLoadMore(doc *goquery.Document) bool {
	return doc.FindMatcher(selLoadMoreLink).Length() > 0
}

// ajaxPayload is the counter endpoint's JSON envelope.
type ajaxPayload struct {
	HTML string `json:"html"`
}

// ParsePayload unwraps the HTML fragment embedded in a counter-endpoint
// JSON response. Returns false when the payload is malformed or carries
// no HTML, which the crawl loop treats as exhaustion.
func ParsePayload(body []byte) (string, bool) {
	var payload ajaxPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	if strings.TrimSpace(payload.HTML) == "" {
		return "", false
	}
	return payload.HTML, true
}
