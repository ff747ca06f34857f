package scout

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Fetcher performs one HTTP GET. It never returns a Go error; failures are
// reported through the outcome's Kind so callers can branch without
// unwrapping.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) FetchOutcome
}

// HeaderRotator produces a fresh randomized identity per attempt.
type HeaderRotator interface {
	Next(refererOverride string) http.Header
}

// SourceScraper discovers listings for a location from one directory source.
// Implementations never return an error: on total failure they fall back to
// synthesized records tagged SourceMock.
type SourceScraper interface {
	Name() string
	Scrape(ctx context.Context, location string, rec Recorder) []Business
}

// Synthesizer generates plausible sample listings for a location.
type Synthesizer interface {
	Synthesize(location string) []Business
}

// Recorder receives pipeline logs and page captures. Implementations always
// forward to the operational log; debug capture is opt-in per request.
type Recorder interface {
	Log(message string, fields ...zap.Field)
	CaptureHTMLSample(url string, html string)
}

// BusinessStore persists discovered listings, deduplicating on write by
// normalized website.
type BusinessStore interface {
	UpsertByWebsite(ctx context.Context, location string, businesses []Business) error
}

// Publisher pushes scrape-completion events downstream.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// BlobStore archives raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
