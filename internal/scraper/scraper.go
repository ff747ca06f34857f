// Package scraper implements the per-directory source scraper: candidate URL
// generation, fetch-and-extract over each candidate, and the mock fallback.
package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leadscout/leadscout/internal/metrics"
	"github.com/leadscout/leadscout/internal/scout"
)

// Extractor is the slice of the extraction cascade the scraper needs.
type Extractor interface {
	Extract(html, sourceName string) []scout.Business
}

// Config controls one Directory scraper.
type Config struct {
	Name               string
	URLTemplates       []string
	AttemptTimeout     time.Duration
	ArchivePrefix      string
	ArchiveContentType string
}

// Directory scrapes one business-directory source. It never returns an
// error: all fetch and parse failures are swallowed, logged through the
// recorder, and covered by the synthesizer fallback.
type Directory struct {
	cfg       Config
	fetcher   scout.Fetcher
	rotator   scout.HeaderRotator
	extractor Extractor
	synth     scout.Synthesizer
	archive   scout.BlobStore
}

// New builds a Directory. The fetcher is expected to carry its own retry
// behavior; archive may be nil to disable raw page archival.
func New(
	cfg Config,
	fetcher scout.Fetcher,
	rotator scout.HeaderRotator,
	extractor Extractor,
	synth scout.Synthesizer,
	archive scout.BlobStore,
) *Directory {
	if cfg.ArchiveContentType == "" {
		cfg.ArchiveContentType = "text/html; charset=utf-8"
	}
	return &Directory{
		cfg:       cfg,
		fetcher:   fetcher,
		rotator:   rotator,
		extractor: extractor,
		synth:     synth,
		archive:   archive,
	}
}

// Name returns the source name used in responses and stats.
func (d *Directory) Name() string {
	return d.cfg.Name
}

// Scrape tries each candidate URL in order and stops at the first one that
// yields records. Exhausting every candidate without data falls back to
// synthesized records tagged SourceMock.
func (d *Directory) Scrape(ctx context.Context, location string, rec scout.Recorder) []scout.Business {
	for _, candidate := range d.CandidateURLs(location) {
		if ctx.Err() != nil {
			rec.Log("source budget exhausted",
				zap.String("source", d.cfg.Name),
				zap.String("url", candidate),
			)
			break
		}

		outcome := d.fetcher.Fetch(ctx, scout.FetchRequest{
			URL:     candidate,
			Headers: d.rotator.Next(""),
			Timeout: d.cfg.AttemptTimeout,
		})
		metrics.ObserveFetch(d.cfg.Name, outcome.Kind.String())
		if !outcome.OK() {
			rec.Log("candidate fetch failed",
				zap.String("source", d.cfg.Name),
				zap.String("url", candidate),
				zap.String("outcome", outcome.Kind.String()),
				zap.Int("status", outcome.StatusCode),
				zap.Error(outcome.Err),
			)
			continue
		}

		records := d.extractor.Extract(string(outcome.Body), d.cfg.Name)
		if len(records) == 0 {
			rec.Log("no records extracted",
				zap.String("source", d.cfg.Name),
				zap.String("url", candidate),
				zap.Int("html_length", len(outcome.Body)),
			)
			rec.CaptureHTMLSample(candidate, string(outcome.Body))
			continue
		}

		rec.Log("candidate yielded records",
			zap.String("source", d.cfg.Name),
			zap.String("url", candidate),
			zap.Int("count", len(records)),
		)
		metrics.ObserveExtraction(d.cfg.Name, len(records))
		d.archivePage(ctx, candidate, outcome.Body, rec)
		return records
	}

	rec.Log("all candidates exhausted, synthesizing sample data",
		zap.String("source", d.cfg.Name),
		zap.String("location", location),
	)
	metrics.ObserveMockFallback(d.cfg.Name)
	return d.synth.Synthesize(location)
}

// archivePage stores the raw HTML of a fruitful page. Failures are logged
// and ignored: archival never affects the scrape result.
func (d *Directory) archivePage(ctx context.Context, url string, body []byte, rec scout.Recorder) {
	if d.archive == nil {
		return
	}
	path := fmt.Sprintf("%s/%s/%d.html", d.cfg.ArchivePrefix, d.cfg.Name, time.Now().UnixNano())
	uri, err := d.archive.PutObject(ctx, path, d.cfg.ArchiveContentType, body)
	if err != nil {
		rec.Log("archive write failed",
			zap.String("source", d.cfg.Name),
			zap.String("url", url),
			zap.Error(err),
		)
		return
	}
	rec.Log("archived page",
		zap.String("source", d.cfg.Name),
		zap.String("uri", uri),
	)
}
