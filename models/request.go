package models

// CrawlRequest is the payload for POST /api/v1/crawl.
type CrawlRequest struct {
	// Subject is the review subject: a bare identifier (tt0111161) or a
	// URL containing one. Required.
	Subject string `json:"subject" binding:"required"`

	// MaxPages limits how many result pages are visited.
	// Default: 5. Max: 50.
	MaxPages int `json:"max_pages,omitempty" binding:"omitempty,min=1,max=50"`

	// FetchBody controls the per-record permalink fetch for the full
	// review text. Defaults to the server configuration when nil.
	FetchBody *bool `json:"fetch_body,omitempty"`

	// BodyFormat selects the review body representation.
	// "text" (default) or "markdown".
	BodyFormat string `json:"body_format,omitempty" binding:"omitempty,oneof=text markdown"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// CrawlJob tracks an in-progress crawl operation.
type CrawlJob struct {
	ID            string
	Status        string // "processing", "completed", "no_records", "failed"
	Result        *CrawlResult
	Error         *ErrorDetail
	CreatedAt     int64 // unix timestamp
	WebhookURL    string
	WebhookSecret string
}
