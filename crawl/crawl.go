// Package crawl owns the end-to-end crawl loop: fetch a page, extract its
// review batch, decide continuation, wait politely, repeat.
package crawl

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/crawlworks/reviewharvest/cache"
	"github.com/crawlworks/reviewharvest/config"
	"github.com/crawlworks/reviewharvest/dedup"
	"github.com/crawlworks/reviewharvest/extract"
	"github.com/crawlworks/reviewharvest/fetch"
	"github.com/crawlworks/reviewharvest/models"
	"github.com/crawlworks/reviewharvest/paginate"
)

// Options tunes one crawl run.
type Options struct {
	// MaxPages is the page budget. Defaults to 5.
	MaxPages int

	// DelayMin/DelayMax bound the random politeness delay between pages.
	DelayMin time.Duration
	DelayMax time.Duration

	// FetchBody enables the per-record permalink fetch on profiles that
	// support it.
	FetchBody bool

	// BodyFormat is "text" or "markdown".
	BodyFormat string

	// SecondaryDelayMin/Max bound the shorter per-record fetch delay.
	SecondaryDelayMin time.Duration
	SecondaryDelayMax time.Duration
}

// OptionsFromConfig derives run defaults from the crawl configuration.
func OptionsFromConfig(cfg config.CrawlConfig) Options {
	return Options{
		MaxPages:          cfg.MaxPages,
		DelayMin:          cfg.DelayMin,
		DelayMax:          cfg.DelayMax,
		FetchBody:         cfg.FetchBody,
		BodyFormat:        cfg.BodyFormat,
		SecondaryDelayMin: cfg.SecondaryDelayMin,
		SecondaryDelayMax: cfg.SecondaryDelayMax,
	}
}

// Orchestrator drives crawls. It is stateless across runs: every Run call
// owns its own result and pagination state, so one Orchestrator may serve
// concurrent runs for different subjects. Within a run, fetches are
// strictly sequential.
type Orchestrator struct {
	fetcher fetch.Fetcher
	pages   *cache.Cache
}

// New creates an Orchestrator. pages may be nil to disable page caching.
func New(fetcher fetch.Fetcher, pages *cache.Cache) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, pages: pages}
}

// Run crawls one subject. The only hard failure is an unrecognizable
// subject, raised before any network access. Page-level fetch errors are
// soft stops: the already-collected records are returned. Cancellation is
// honored before every fetch and every delay; a canceled run returns its
// partial result alongside the context error.
func (o *Orchestrator) Run(ctx context.Context, rawSubject string, opts Options) (*models.CrawlResult, error) {
	subject, err := ResolveSubject(rawSubject)
	if err != nil {
		return nil, err
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 5
	}

	result := &models.CrawlResult{Subject: subject.ID, Title: subject.ID}

	var (
		profile *extract.Profile
		driver  paginate.Driver
	)
	switch subject.Kind {
	case KindMovie:
		profile = extract.MovieReviews()
		driver = paginate.TokenDriver{BaseURL: subject.ReviewsURL()}
	case KindProduct:
		profile = extract.ProductReviews()
		driver = paginate.CounterDriver{Endpoint: productReviewsEndpoint, ProductID: subject.ID}
	}

	extractor := extract.New(profile, o.fetcher, o.pages, extract.Options{
		FetchBody:         opts.FetchBody,
		BodyFormat:        opts.BodyFormat,
		SecondaryDelayMin: opts.SecondaryDelayMin,
		SecondaryDelayMax: opts.SecondaryDelayMax,
	})

	slog.Info("starting crawl",
		"subject", subject.ID,
		"profile", profile.Name,
		"maxPages", opts.MaxPages,
	)

	if subject.Kind == KindMovie {
		result.Title = o.movieTitle(ctx, subject)
		slog.Info("resolved subject title", "subject", subject.ID, "title", result.Title)
	}

	state := paginate.State{URL: subject.PageURL, Page: 1}
	seen := dedup.NewTracker()

	for result.PagesVisited < opts.MaxPages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pageURL := state.URL
		body, err := o.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			// Soft stop: keep what we have.
			slog.Warn("page fetch failed, stopping pagination",
				"page", result.PagesVisited+1,
				"url", pageURL,
				"error", err,
			)
			break
		}
		result.PagesVisited++
		firstPage := result.PagesVisited == 1

		// Counter-protocol continuation pages arrive as a JSON envelope
		// wrapping an HTML fragment; an empty envelope means exhausted.
		if subject.Kind == KindProduct && !firstPage {
			fragment, ok := paginate.ParsePayload(body)
			if !ok {
				slog.Info("empty pagination payload, listing exhausted", "page", result.PagesVisited)
				break
			}
			body = []byte(fragment)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			slog.Warn("unparseable page, stopping pagination", "page", result.PagesVisited, "error", err)
			break
		}

		if firstPage && subject.Kind == KindProduct {
			result.Product = extract.ExtractProductInfo(doc, pageURL)
			if result.Product.Name != "" && !strings.Contains(result.Product.Name, "not found") {
				result.Title = result.Product.Name
			}
		}

		records, skipped := extractor.ExtractBatch(ctx, doc)
		duplicates := 0
		for _, r := range records {
			if isDuplicate(seen, r) {
				duplicates++
				continue
			}
			result.Records = append(result.Records, r)
		}
		result.Skipped += skipped

		slog.Info("page extracted",
			"page", result.PagesVisited,
			"records", len(records),
			"skipped", skipped,
			"duplicates", duplicates,
			"total", len(result.Records),
		)

		// Counter protocol: an empty extracted batch signals exhaustion.
		if subject.Kind == KindProduct {
			if firstPage && !paginate.HasLoadMore(doc) {
				break
			}
			if !firstPage && len(records) == 0 {
				break
			}
		}

		state = driver.Next(doc, state)
		if state.IsExhausted() {
			slog.Info("no more pages available", "pagesVisited", result.PagesVisited)
			break
		}
		if result.PagesVisited >= opts.MaxPages {
			break
		}

		if err := sleepBetween(ctx, opts.DelayMin, opts.DelayMax); err != nil {
			return result, err
		}
	}

	slog.Info("crawl finished",
		"subject", subject.ID,
		"title", result.Title,
		"records", len(result.Records),
		"pages", result.PagesVisited,
		"skipped", result.Skipped,
	)
	return result, nil
}

// isDuplicate consults the tracker for records with enough identity to
// match on. Anonymous reviews and sentinel-only bodies are never deduped;
// two unrelated failures would look identical.
func isDuplicate(seen *dedup.Tracker, r models.Record) bool {
	if r.Reviewer == models.SentinelAnonymous {
		return false
	}
	switch r.Text {
	case models.SentinelNoContent, models.SentinelFetchFailed, models.SentinelNoPermalink:
		return false
	}
	return seen.Seen(r.Reviewer, r.Date, r.Text)
}

var movieTitleRules = []extract.Rule{
	extract.Sel(`h1[data-testid="hero__pageTitle"]`, extract.StripYear, extract.CollapseWhitespace),
	extract.Sel("h1", extract.StripYear, extract.CollapseWhitespace),
	extract.Sel(".title_wrapper h1", extract.StripYear, extract.CollapseWhitespace),
}

// movieTitle resolves the human-readable title from the subject's main
// page. Failures fall back to the canonical id; a missing title never
// stops a crawl.
func (o *Orchestrator) movieTitle(ctx context.Context, subject Subject) string {
	titleURL := subject.TitleURL()

	var body []byte
	key := cache.Key(titleURL)
	if o.pages != nil {
		if cached, hit := o.pages.Get(key); hit {
			body = cached
		}
	}
	if body == nil {
		fetched, err := o.fetcher.Fetch(ctx, titleURL)
		if err != nil {
			slog.Warn("title lookup failed, using id", "subject", subject.ID, "error", err)
			return subject.ID
		}
		body = fetched
		if o.pages != nil {
			o.pages.Set(key, body)
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return subject.ID
	}
	if title, ok := extract.Resolve(doc.Selection, movieTitleRules); ok {
		return title
	}
	return subject.ID
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
