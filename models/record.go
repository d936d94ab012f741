package models

// Sentinel values substituted when a field cannot be resolved.
// Every Record field is always populated: either with extracted text or
// with the field's sentinel, never left empty.
const (
	SentinelNA          = "N/A"
	SentinelAnonymous   = "Anonymous"
	SentinelNoTitle     = "No Title"
	SentinelUnknownDate = "Unknown date"
	SentinelNoContent   = "No content"

	// SentinelFetchFailed marks a review body whose secondary permalink
	// fetch failed. The rest of the record is kept.
	SentinelFetchFailed = "Error fetching full review"

	// SentinelNoPermalink marks a review body for which the fragment
	// carried no permalink to follow.
	SentinelNoPermalink = "No permalink available to fetch full review"
)

// Record is one fully-populated review.
type Record struct {
	Reviewer string `json:"reviewer"`
	Title    string `json:"title"`
	Rating   string `json:"rating"`
	Date     string `json:"date"`
	Verified string `json:"verified"`
	Text     string `json:"text"`
}

// SpecEntry is one key/value row from a product specification table.
// Kept as a slice rather than a map so CSV output preserves source order.
type SpecEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProductInfo is the product metadata block extracted from the first page
// of a product-shaped subject. Absent for review-only subjects.
type ProductInfo struct {
	Name     string      `json:"name"`
	Price    string      `json:"price"`
	MRP      string      `json:"mrp"`
	Discount string      `json:"discount"`
	Seller   string      `json:"seller"`
	Rating   string      `json:"rating"`
	URL      string      `json:"url"`
	Specs    []SpecEntry `json:"specs,omitempty"`
}

// CrawlResult is the accumulated outcome of one crawl. It is owned by the
// caller of Orchestrator.Run and is never shared or mutated afterwards.
// Records preserve page-visit order and, within a page, fragment order.
type CrawlResult struct {
	// Subject is the canonical subject identifier the crawl resolved to.
	Subject string `json:"subject"`

	// Title is the human-readable subject title, or the canonical
	// identifier when no title could be resolved.
	Title string `json:"title"`

	// Product is populated only for product-shaped subjects.
	Product *ProductInfo `json:"product,omitempty"`

	Records      []Record `json:"records"`
	PagesVisited int      `json:"pages_visited"`

	// Skipped counts fragments dropped due to record-level parse faults.
	Skipped int `json:"skipped,omitempty"`
}
