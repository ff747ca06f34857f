// Package orchestrator fans a scrape request out across the registered
// directory sources, merges and deduplicates their results, and assembles
// the response with per-source stats.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leadscout/leadscout/internal/metrics"
	"github.com/leadscout/leadscout/internal/scout"
)

var (
	// ErrEmptyLocation is returned when the request has no location.
	ErrEmptyLocation = errors.New("location is required")
	// ErrUnknownSource is returned when the request names a source that is
	// not registered.
	ErrUnknownSource = errors.New("unknown source")
)

// Config controls the orchestrator.
type Config struct {
	// Budget bounds one whole request across all sources.
	Budget time.Duration
	// Topic is the event topic scrape completions are published to.
	Topic string
}

// Option customizes an Orchestrator with optional downstream integrations.
type Option func(*Orchestrator)

// WithStore enables best-effort persistence of discovered listings.
func WithStore(store scout.BusinessStore) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithPublisher enables best-effort scrape-completion events.
func WithPublisher(p scout.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// Orchestrator coordinates one scrape request end to end.
type Orchestrator struct {
	cfg       Config
	scrapers  []scout.SourceScraper
	synth     scout.Synthesizer
	clock     scout.Clock
	logger    *zap.Logger
	store     scout.BusinessStore
	publisher scout.Publisher
}

// New builds an Orchestrator. Scraper registration order is preserved: it
// determines the order of the joined source label in responses. The
// synthesizer is the safety net for the guarantee that a scrape never
// returns an empty result.
func New(
	cfg Config,
	scrapers []scout.SourceScraper,
	synth scout.Synthesizer,
	clock scout.Clock,
	logger *zap.Logger,
	opts ...Option,
) *Orchestrator {
	if cfg.Budget <= 0 {
		cfg.Budget = 35 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		cfg:      cfg,
		scrapers: scrapers,
		synth:    synth,
		clock:    clock,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ScrapeEvent is the payload published after each completed request.
type ScrapeEvent struct {
	Location  string    `json:"location"`
	Source    string    `json:"source"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// Scrape runs the request against the selected sources and returns the
// merged response. It fails only on invalid input; source-level failures
// are absorbed into stats and covered by the mock fallback.
func (o *Orchestrator) Scrape(ctx context.Context, req scout.ScrapeRequest, rec scout.Recorder) (scout.Response, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return scout.Response{}, ErrEmptyLocation
	}

	if normalizeSource(req.Source) == scout.SourceMock {
		return o.mockOnly(ctx, location), nil
	}

	targets, err := o.targets(req.Source)
	if err != nil {
		return scout.Response{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Budget)
	defer cancel()

	started := time.Now()
	results := make([]scout.SourceResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range targets {
		g.Go(func() error {
			results[i] = o.runSource(gctx, s, location, rec)
			return nil
		})
	}
	_ = g.Wait()

	resp := o.assemble(location, results)
	rec.Log("scrape complete",
		zap.String("location", location),
		zap.String("source", resp.Source),
		zap.Int("unique", resp.Count),
		zap.Duration("elapsed", time.Since(started)),
	)

	o.persist(ctx, location, resp)
	o.publish(ctx, resp)
	return resp, nil
}

// runSource executes one scraper, isolating panics so a misbehaving source
// cannot take down the request.
func (o *Orchestrator) runSource(ctx context.Context, s scout.SourceScraper, location string, rec scout.Recorder) (res scout.SourceResult) {
	res.SourceName = s.Name()
	start := time.Now()
	defer func() {
		res.DurationMs = time.Since(start).Milliseconds()
		metrics.ObserveSourceDuration(res.SourceName, time.Since(start))
		if r := recover(); r != nil {
			res.Businesses = nil
			res.Error = fmt.Sprintf("panic: %v", r)
			rec.Log("source panicked",
				zap.String("source", res.SourceName),
				zap.Any("panic", r),
			)
		}
	}()
	res.Businesses = s.Scrape(ctx, location, rec)
	return res
}

// assemble merges per-source results into a response. Real records win over
// synthesized ones: the mock pool is used only when no source produced a
// single real record.
func (o *Orchestrator) assemble(location string, results []scout.SourceResult) scout.Response {
	stats := scout.Stats{Sources: make(map[string]scout.SourceStats)}
	var real, mockPool []scout.Business
	var successNames []string

	for _, res := range results {
		realCount := 0
		for _, b := range res.Businesses {
			if b.Source == scout.SourceMock {
				mockPool = append(mockPool, b)
			} else {
				real = append(real, b)
				realCount++
			}
		}
		success := res.Error == "" && realCount > 0
		if success {
			successNames = append(successNames, res.SourceName)
		}
		stats.Sources[res.SourceName] = scout.SourceStats{
			Count:      realCount,
			Success:    success,
			DurationMs: res.DurationMs,
			Error:      res.Error,
		}
	}

	var chosen []scout.Business
	var label string
	if len(real) > 0 {
		chosen = scout.DedupByWebsite(real)
		label = strings.Join(successNames, "+")
		stats.Total = len(real)
	} else {
		if len(mockPool) == 0 {
			mockPool = o.synth.Synthesize(location)
		}
		chosen = scout.DedupByWebsite(mockPool)
		label = scout.SourceMock
		stats.Total = len(mockPool)
		stats.Sources[scout.SourceMock] = scout.SourceStats{
			Count: len(chosen),
			Used:  true,
		}
	}
	stats.Unique = len(chosen)
	metrics.ObserveScrape(label, resultLabel(label))

	return scout.Response{
		Businesses: chosen,
		Count:      len(chosen),
		Location:   location,
		Source:     label,
		Timestamp:  o.clock.Now().UTC(),
		Stats:      stats,
	}
}

// mockOnly serves requests that explicitly ask for synthesized data.
func (o *Orchestrator) mockOnly(ctx context.Context, location string) scout.Response {
	chosen := scout.DedupByWebsite(o.synth.Synthesize(location))
	stats := scout.Stats{
		Total:  len(chosen),
		Unique: len(chosen),
		Sources: map[string]scout.SourceStats{
			scout.SourceMock: {Count: len(chosen), Used: true},
		},
	}
	metrics.ObserveScrape(scout.SourceMock, "mock")
	resp := scout.Response{
		Businesses: chosen,
		Count:      len(chosen),
		Location:   location,
		Source:     scout.SourceMock,
		Timestamp:  o.clock.Now().UTC(),
		Stats:      stats,
	}
	o.publish(ctx, resp)
	return resp
}

// persist upserts real discoveries. Synthesized records are never stored.
func (o *Orchestrator) persist(ctx context.Context, location string, resp scout.Response) {
	if o.store == nil || resp.Source == scout.SourceMock {
		return
	}
	if err := o.store.UpsertByWebsite(ctx, location, resp.Businesses); err != nil {
		o.logger.Warn("business upsert failed",
			zap.String("location", location),
			zap.Error(err),
		)
	}
}

// publish emits a completion event. Failures are logged and dropped.
func (o *Orchestrator) publish(ctx context.Context, resp scout.Response) {
	if o.publisher == nil {
		return
	}
	event := ScrapeEvent{
		Location:  resp.Location,
		Source:    resp.Source,
		Count:     resp.Count,
		Timestamp: resp.Timestamp,
	}
	if _, err := o.publisher.Publish(ctx, o.cfg.Topic, event); err != nil {
		o.logger.Warn("event publish failed",
			zap.String("topic", o.cfg.Topic),
			zap.Error(err),
		)
	}
}

// targets resolves the requested source to the scrapers to run.
func (o *Orchestrator) targets(source string) ([]scout.SourceScraper, error) {
	source = normalizeSource(source)
	if source == "" || source == scout.SourceAuto {
		return o.scrapers, nil
	}
	for _, s := range o.scrapers {
		if s.Name() == source {
			return []scout.SourceScraper{s}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
}

func normalizeSource(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}

func resultLabel(source string) string {
	if source == scout.SourceMock {
		return "mock"
	}
	return "ok"
}
