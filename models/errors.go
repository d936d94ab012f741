package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	// ErrCodeInvalidSubject is the one hard, pre-flight failure: the
	// subject identifier matched none of the known patterns. Raised
	// before any network access.
	ErrCodeInvalidSubject = "INVALID_SUBJECT"

	// ErrCodeNetwork covers timeouts, connection failures, and non-2xx
	// responses on a page-level fetch. Treated as a soft stop: the crawl
	// loop ends but already-collected records are returned.
	ErrCodeNetwork = "NETWORK_ERROR"

	// ErrCodeRecordParse marks a single unusable fragment. The fragment
	// is skipped; the surrounding batch continues.
	ErrCodeRecordParse = "RECORD_PARSE_FAILED"

	// ErrCodeSecondaryFetch marks a failed per-record permalink fetch.
	// The record keeps its other fields and gets a sentinel body.
	ErrCodeSecondaryFetch = "SECONDARY_FETCH_FAILED"

	ErrCodeExport       = "EXPORT_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CrawlError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type CrawlError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *CrawlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// NewCrawlError creates a new CrawlError.
func NewCrawlError(code, message string, err error) *CrawlError {
	return &CrawlError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *CrawlError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// HasCode reports whether err is (or wraps) a CrawlError with the given code.
func HasCode(err error, code string) bool {
	var ce *CrawlError
	return errors.As(err, &ce) && ce.Code == code
}
