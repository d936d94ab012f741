package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/crawlworks/reviewharvest/cache"
	"github.com/crawlworks/reviewharvest/fetch"
	"github.com/crawlworks/reviewharvest/models"
)

// minBodyLength is the minimum readability TextContent length (in
// characters) for fallback extraction to be considered valid.
const minBodyLength = 50

// Options tunes one Extractor instance.
type Options struct {
	// FetchBody enables the secondary permalink fetch on profiles that
	// declare one. When off, the body is resolved from the fragment.
	FetchBody bool

	// BodyFormat is "text" or "markdown".
	BodyFormat string

	// SecondaryDelayMin/Max bound the politeness delay before each
	// permalink fetch. Shorter than the page-level delay.
	SecondaryDelayMin time.Duration
	SecondaryDelayMax time.Duration
}

// Extractor turns review fragments into Records for one site profile.
// Per-fragment faults are logged and isolated: one malformed fragment
// never aborts the surrounding batch.
type Extractor struct {
	profile *Profile
	fetcher fetch.Fetcher
	pages   *cache.Cache
	opts    Options
	conv    *converter.Converter
}

// New creates an Extractor. fetcher and pages may be nil when the profile
// has no permalink fetch or it is disabled.
func New(profile *Profile, fetcher fetch.Fetcher, pages *cache.Cache, opts Options) *Extractor {
	e := &Extractor{
		profile: profile,
		fetcher: fetcher,
		pages:   pages,
		opts:    opts,
	}
	if opts.BodyFormat == "markdown" {
		e.conv = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		)
	}
	return e
}

// ExtractBatch extracts every fragment on the page, in document order.
// Returns the records plus the number of fragments skipped due to
// record-level faults.
func (e *Extractor) ExtractBatch(ctx context.Context, doc *goquery.Document) ([]models.Record, int) {
	fragments := e.profile.Fragments(doc)
	if fragments == nil || fragments.Length() == 0 {
		return nil, 0
	}

	records := make([]models.Record, 0, fragments.Length())
	skipped := 0

	fragments.Each(func(i int, frag *goquery.Selection) {
		rec, err := e.extractOne(ctx, frag)
		if err != nil {
			skipped++
			slog.Warn("skipping unusable review fragment",
				"profile", e.profile.Name,
				"fragment", i,
				"error", err,
			)
			return
		}
		records = append(records, *rec)
	})

	return records, skipped
}

// extractOne builds one Record from a fragment. Returns an error only when
// the fragment is unusable as a whole; individual missing fields fall back
// to their sentinels. Panics from malformed subtrees are recovered and
// reported as record-level faults.
func (e *Extractor) extractOne(ctx context.Context, frag *goquery.Selection) (rec *models.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = models.NewCrawlError(
				models.ErrCodeRecordParse,
				fmt.Sprintf("panic while extracting fragment: %v", r),
				nil,
			)
		}
	}()

	matched := 0
	resolve := func(f FieldStrategy) string {
		v, ok := f.Apply(frag)
		if ok {
			matched++
		}
		return v
	}

	r := models.Record{
		Reviewer: resolve(e.profile.Reviewer),
		Title:    resolve(e.profile.Title),
		Rating:   resolve(e.profile.Rating),
		Date:     resolve(e.profile.Date),
		Verified: resolve(e.profile.Verified),
	}

	body, bodyMatched := e.resolveBody(ctx, frag)
	r.Text = body
	if bodyMatched {
		matched++
	}

	// No field and no body resolved: there is no identifiable record root
	// here, just markup the fragment selector over-matched.
	if matched == 0 {
		return nil, models.NewCrawlError(models.ErrCodeRecordParse, "no identifiable record root", nil)
	}

	return &r, nil
}

// resolveBody produces the review body text. Three paths: inline fragment
// body, permalink secondary fetch, or a sentinel. Secondary-fetch failures
// substitute a sentinel and never fail the record.
func (e *Extractor) resolveBody(ctx context.Context, frag *goquery.Selection) (string, bool) {
	spec := e.profile.Permalink
	if spec == nil || !e.opts.FetchBody || e.fetcher == nil {
		return e.fragmentBody(frag)
	}

	href, ok := Resolve(frag, spec.LinkRules)
	if !ok {
		return models.SentinelNoPermalink, false
	}
	permalink := href
	if !strings.HasPrefix(href, "http") {
		permalink = spec.BaseURL + href
	}

	body, err := e.fetchPermalink(ctx, permalink)
	if err != nil {
		slog.Warn("full review fetch failed, substituting sentinel",
			"permalink", permalink,
			"error", err,
		)
		return models.SentinelFetchFailed, false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.SentinelFetchFailed, false
	}

	if node, found := ResolveNode(doc.Selection, spec.BodyRules); found {
		return e.renderBody(node, permalink), true
	}

	// Selector chains all missed: the permalink page layout has drifted.
	// Try generic article extraction before sentineling.
	if text, found := e.readableBody(body, permalink); found {
		return text, true
	}

	slog.Warn("could not locate review text on permalink page", "permalink", permalink)
	return models.SentinelFetchFailed, false
}

// fragmentBody resolves the body from the fragment itself.
func (e *Extractor) fragmentBody(frag *goquery.Selection) (string, bool) {
	if e.conv != nil {
		if node, found := ResolveNode(frag, e.profile.Body.Rules); found {
			return e.renderBody(node, ""), true
		}
		return e.profile.Body.Sentinel, false
	}
	return e.profile.Body.Apply(frag)
}

// fetchPermalink retrieves a permalink page, consulting the page cache
// first and pausing for the short politeness delay on real fetches.
func (e *Extractor) fetchPermalink(ctx context.Context, permalink string) ([]byte, error) {
	key := cache.Key(permalink)
	if e.pages != nil {
		if body, hit := e.pages.Get(key); hit {
			return body, nil
		}
	}

	if err := sleepBetween(ctx, e.opts.SecondaryDelayMin, e.opts.SecondaryDelayMax); err != nil {
		return nil, models.NewCrawlError(models.ErrCodeSecondaryFetch, "canceled before permalink fetch", err)
	}

	body, err := e.fetcher.Fetch(ctx, permalink)
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeSecondaryFetch, "permalink fetch failed", err)
	}

	if e.pages != nil {
		e.pages.Set(key, body)
	}
	return body, nil
}

// renderBody converts a matched body node into the configured output
// format. pageURL resolves relative links in markdown output.
func (e *Extractor) renderBody(node *goquery.Selection, pageURL string) string {
	if e.conv == nil {
		return CollapseWhitespace(node.Text())
	}

	inner, err := node.Html()
	if err != nil {
		return CollapseWhitespace(node.Text())
	}

	domain := ""
	if u, err := url.Parse(pageURL); err == nil {
		domain = u.Scheme + "://" + u.Host
	}
	md, err := e.conv.ConvertString(inner, converter.WithDomain(domain))
	if err != nil {
		return CollapseWhitespace(node.Text())
	}
	return strings.TrimSpace(md)
}

// readableBody runs the Readability algorithm over a permalink page whose
// known selectors all missed.
func (e *Extractor) readableBody(body []byte, pageURL string) (string, bool) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) < minBodyLength {
		return "", false
	}
	if e.conv != nil {
		if md, err := e.conv.ConvertString(article.Content); err == nil {
			return strings.TrimSpace(md), true
		}
	}
	return CollapseWhitespace(text), true
}

// sleepBetween pauses for a uniformly random duration within [min, max],
// returning early if ctx is canceled.
func sleepBetween(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d = min + rand.N(max-min)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
