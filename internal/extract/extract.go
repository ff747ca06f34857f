// Package extract turns directory-listing HTML into business records via a
// cascade of progressively looser strategies.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/leadscout/leadscout/internal/scout"
)

// Config carries the selector lists driving the DOM passes. Selector order
// matters: earlier entries are more specific and win.
type Config struct {
	ContainerSelectors []string
	NameSelectors      []string
	PhoneSelectors     []string
	MaxElements        int
}

// page is the parsed input handed to each strategy. Doc is nil when the HTML
// failed to parse; only the regex pass can still work then.
type page struct {
	html   string
	doc    *goquery.Document
	source string
}

// StrategyFunc is one extraction pass: HTML in, records out, no side effects.
type StrategyFunc func(p page) []scout.Business

// Strategy names a pass for logging and instrumentation.
type Strategy struct {
	Name string
	Run  StrategyFunc
}

// Extractor applies its strategies in order and stops at the first one that
// produces at least one record.
type Extractor struct {
	cfg        Config
	strategies []Strategy
	observer   func(strategy string)
}

// New builds an Extractor with the standard cascade: structured selectors,
// attribute heuristics, sibling patterns, bare headings, then a regex sweep
// over the raw HTML.
func New(cfg Config) *Extractor {
	if cfg.MaxElements <= 0 {
		cfg.MaxElements = 10
	}
	if len(cfg.ContainerSelectors) == 0 {
		cfg.ContainerSelectors = []string{".result", ".business-listing", ".company-card", "article"}
	}
	if len(cfg.NameSelectors) == 0 {
		cfg.NameSelectors = []string{".business-name", ".name", "h2 a", "h2", "h3"}
	}
	if len(cfg.PhoneSelectors) == 0 {
		cfg.PhoneSelectors = []string{".phones", ".phone", "[class*=phone]"}
	}
	e := &Extractor{cfg: cfg}
	e.strategies = []Strategy{
		{Name: "structured-selectors", Run: e.structuredPass},
		{Name: "attribute-heuristic", Run: e.attributePass},
		{Name: "sibling-pattern", Run: e.siblingPass},
		{Name: "heading-names", Run: e.headingPass},
		{Name: "regex-fallback", Run: e.regexPass},
	}
	return e
}

// WithObserver registers a callback invoked with each strategy name as it
// runs, letting tests assert that the cascade short-circuits.
func (e *Extractor) WithObserver(fn func(strategy string)) *Extractor {
	e.observer = fn
	return e
}

// Extract runs the cascade over the raw HTML, returning the first non-empty
// strategy result. Records come back with normalized websites and without
// nameless entries; an empty slice means every strategy struck out.
func (e *Extractor) Extract(html, sourceName string) []scout.Business {
	p := page{html: html, source: sourceName}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		p.doc = doc
	}
	for _, s := range e.strategies {
		if e.observer != nil {
			e.observer(s.Name)
		}
		if records := s.Run(p); len(records) > 0 {
			return records
		}
	}
	return nil
}
