package scraper

import (
	"net/url"
	"strings"

	"github.com/leadscout/leadscout/internal/scout"
)

const queryToken = "{query}"

// CandidateURLs builds the ordered fetch candidates for a location: each
// location form (raw, city-only, slug) substituted into every URL template,
// most specific form first. Order is significant because Scrape stops at the
// first fruitful candidate. Duplicates are dropped.
func (d *Directory) CandidateURLs(location string) []string {
	location = strings.TrimSpace(location)
	forms := []string{
		url.QueryEscape(location),
		url.QueryEscape(scout.CityOf(location)),
		scout.Slugify(location),
	}

	seen := make(map[string]struct{})
	var out []string
	for _, form := range forms {
		if form == "" {
			continue
		}
		for _, template := range d.cfg.URLTemplates {
			candidate := strings.ReplaceAll(template, queryToken, form)
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			out = append(out, candidate)
		}
	}
	return out
}
