package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/crawlworks/reviewharvest/models"
)

// PermalinkSpec enables the secondary per-record fetch: the fragment only
// carries a teaser, and the full review body lives behind a permalink.
type PermalinkSpec struct {
	// LinkRules locate the permalink href inside a fragment.
	LinkRules []Rule

	// BaseURL prefixes relative permalink hrefs.
	BaseURL string

	// BodyRules locate the review body on the fetched permalink page.
	// When none match, readability extraction is tried before giving up.
	BodyRules []Rule
}

// Profile bundles everything extraction needs to know about one site
// shape: how to find review fragments and how to resolve each field.
// Profiles are immutable after construction and safe to share.
type Profile struct {
	Name string

	// FragmentRules is the fallback chain locating review fragments on a
	// page; the first rule matching at least one node wins.
	FragmentRules []Rule

	Reviewer FieldStrategy
	Title    FieldStrategy
	Rating   FieldStrategy
	Date     FieldStrategy
	Verified FieldStrategy

	// Body is resolved against the fragment itself. Profiles with a
	// PermalinkSpec use it only when the secondary fetch is disabled.
	Body FieldStrategy

	Permalink *PermalinkSpec
}

// Fragments returns the review fragments found on a page, trying the
// fragment rule chain in order. The returned selection preserves source
// document order.
func (p *Profile) Fragments(doc *goquery.Document) *goquery.Selection {
	for _, r := range p.FragmentRules {
		sel := doc.FindMatcher(r.matcher)
		if sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// MovieReviews is the profile for movie review pages: token-paginated
// review cards whose full text sits behind a per-review permalink.
func MovieReviews() *Profile {
	return &Profile{
		Name: "movie",
		FragmentRules: []Rule{
			Sel("article.user-review-item"),
			Sel("div.ipc-list-card--border-speech"),
		},
		Reviewer: FieldStrategy{
			Rules: []Rule{
				Sel(`div[data-testid="reviews-author"] a[data-testid="author-link"]`),
			},
			Sentinel: models.SentinelAnonymous,
		},
		Title: FieldStrategy{
			Rules: []Rule{
				Sel("h3.ipc-title__text", FlattenMarkup, CollapseWhitespace),
			},
			Sentinel: models.SentinelNoTitle,
		},
		Rating: FieldStrategy{
			Rules: []Rule{
				Sel("span.ipc-rating-star span.ipc-rating-star--rating"),
			},
			Sentinel: models.SentinelNA,
		},
		Date: FieldStrategy{
			Rules: []Rule{
				Sel(`div[data-testid="reviews-author"] li.review-date`, NormalizeDate),
			},
			Sentinel: models.SentinelUnknownDate,
		},
		// Movie review cards carry no verified-purchase marker.
		Verified: FieldStrategy{Sentinel: models.SentinelNA},
		Body: FieldStrategy{
			Rules: []Rule{
				Sel("div.ipc-html-content-inner-div"),
				Sel("div.text.show-more__control"),
			},
			Sentinel: models.SentinelNoContent,
		},
		Permalink: &PermalinkSpec{
			LinkRules: []Rule{
				Attr(`div[data-testid="reviews-author"] a[data-testid="permalink-link"]`, "href"),
			},
			BaseURL: "https://www.imdb.com",
			BodyRules: []Rule{
				Sel("div.text.show-more__control"),
				Sel("div.content"),
				Sel(`[class*="Content__ReviewContent"]`),
			},
		},
	}
}

// ProductReviews is the profile for product review lists: counter-paginated
// list items whose body text is inline, with a verified-buyer marker.
func ProductReviews() *Profile {
	return &Profile{
		Name: "product",
		FragmentRules: []Rule{
			Sel("div.rnr_lists ul li"),
		},
		Reviewer: FieldStrategy{
			Rules: []Rule{
				Sel("div.r_by", StripCommentTail),
			},
			Sentinel: models.SentinelAnonymous,
		},
		// Product reviews have no headline.
		Title: FieldStrategy{Sentinel: models.SentinelNoTitle},
		Rating: FieldStrategy{
			Rules: []Rule{
				Sel("div.prd_ratings span"),
			},
			Sentinel: models.SentinelNA,
		},
		Date: FieldStrategy{
			Rules: []Rule{
				Sel("div.r_date", NormalizeDate),
			},
			Sentinel: models.SentinelUnknownDate,
		},
		Verified: FieldStrategy{
			Rules: []Rule{
				Sel("div.use_type"),
			},
			Sentinel: models.SentinelNA,
		},
		Body: FieldStrategy{
			Rules: []Rule{
				Sel("div.review_desc p", StripCommentTail),
			},
			Sentinel: models.SentinelNoContent,
		},
	}
}
