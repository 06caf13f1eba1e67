package source

import (
	"fmt"
	"net/http"
)

// RawRecord is one university as returned by the directory API
type RawRecord struct {
	Name             string   `json:"name"`
	Country          string   `json:"country"`
	AlphaTwoCode     *string  `json:"alpha_two_code"`
	StateProvince    *string  `json:"state-province"`
	StateProvinceAlt *string  `json:"state_province,omitempty"` // spelling used by some mirrors
	Domains          []string `json:"domains"`
	WebPages         []string `json:"web_pages"`

	// DecodeErr is set when the element did not match this shape; the
	// fields that did decode are kept for logging.
	DecodeErr error `json:"-"`
}

// StatusError is returned when the directory answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether repeating the request may succeed
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// FetchError wraps any failure to obtain the records of a country
type FetchError struct {
	Country string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Country, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
