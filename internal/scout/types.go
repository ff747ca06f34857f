package scout

import (
	"net/http"
	"time"
)

// SourceAuto selects every registered directory source.
const SourceAuto = "auto"

// SourceMock tags records produced by the synthesizer rather than a real site.
const SourceMock = "mock"

// Business is a single discovered listing. Website is stored normalized
// (lowercase host, no scheme, no trailing slash) so records from different
// sources compare equal. Instances are never mutated after creation.
type Business struct {
	Name    string `json:"name"`
	Website string `json:"website"`
	Phone   string `json:"phone,omitempty"`
	Source  string `json:"source,omitempty"`
}

// ScrapeRequest captures one discovery call. Location is required; Source
// defaults to SourceAuto.
type ScrapeRequest struct {
	Location string `json:"location"`
	Source   string `json:"source"`
	Debug    bool   `json:"debug"`
}

// SourceResult records the outcome of one source attempt within a request.
type SourceResult struct {
	SourceName string
	Success    bool
	Businesses []Business
	Error      string
	DurationMs int64
}

// SourceStats is the per-source slice of response stats. Used is only set on
// the synthetic "mock" entry.
type SourceStats struct {
	Count      int    `json:"count"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"duration"`
	Error      string `json:"error,omitempty"`
	Used       bool   `json:"used,omitempty"`
}

// Stats summarizes a whole request for observability.
type Stats struct {
	Total   int                    `json:"total"`
	Unique  int                    `json:"unique"`
	Sources map[string]SourceStats `json:"sources"`
}

// HTMLSample is a truncated page capture stored in a DebugBundle.
type HTMLSample struct {
	URL    string `json:"url"`
	Length int    `json:"length"`
	Sample string `json:"sample"`
}

// DebugBundle carries the per-request debug capture. It exists only while
// the request is in flight and is discarded once the response is written.
type DebugBundle struct {
	Logs        []string     `json:"logs"`
	HTMLSamples []HTMLSample `json:"htmlSamples"`
}

// Response is the body returned by the scrape endpoint.
type Response struct {
	Businesses []Business   `json:"businesses"`
	Count      int          `json:"count"`
	Location   string       `json:"location"`
	Source     string       `json:"source"`
	Timestamp  time.Time    `json:"timestamp"`
	Stats      Stats        `json:"stats"`
	Debug      *DebugBundle `json:"debug,omitempty"`
}

// FetchKind discriminates fetch outcomes so the retry policy can decide what
// to do without unwrapping errors.
type FetchKind int

// Fetch outcome kinds.
const (
	FetchOK FetchKind = iota
	FetchTimeout
	FetchHTTPError
	FetchNetworkError
)

// String returns the lowercase label used in logs and metrics.
func (k FetchKind) String() string {
	switch k {
	case FetchOK:
		return "ok"
	case FetchTimeout:
		return "timeout"
	case FetchHTTPError:
		return "http_error"
	case FetchNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// FetchRequest captures everything needed to fetch one candidate URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
	Timeout time.Duration
}

// FetchOutcome is the result of a single fetch attempt. Kind is always set;
// StatusCode and Body are only meaningful for FetchOK and FetchHTTPError.
type FetchOutcome struct {
	Kind       FetchKind
	StatusCode int
	Body       []byte
	Err        error
	Duration   time.Duration
}

// OK reports whether the attempt produced a usable body.
func (o FetchOutcome) OK() bool {
	return o.Kind == FetchOK
}
