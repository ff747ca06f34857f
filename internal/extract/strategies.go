package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/leadscout/leadscout/internal/scout"
)

var (
	phoneRe = regexp.MustCompile(`\(?\d{3}\)?[-\s]?\d{3}[-\s]?\d{4}`)

	// Block-level fallback when the DOM passes find nothing. Matches listing
	// container divs and pulls a heading plus a website-looking href out of
	// each span.
	blockRe   = regexp.MustCompile(`(?is)<div[^>]+class="[^"]*(?:result|listing|business)[^"]*"[^>]*>(.*?)</div>`)
	headingRe = regexp.MustCompile(`(?is)<h[1-4][^>]*>(.*?)</h[1-4]>`)
	hrefRe    = regexp.MustCompile(`(?i)href="([^"]*(?:website|http)[^"]*)"`)
	tagRe     = regexp.MustCompile(`<[^>]*>`)
)

// Substrings that mark an element as a probable listing container when no
// structured selector matched.
var listingHints = []string{"business", "listing", "result", "company"}

// structuredPass tries the configured container selectors in order and stops
// at the first selector matching at least one element.
func (e *Extractor) structuredPass(p page) []scout.Business {
	if p.doc == nil {
		return nil
	}
	for _, selector := range e.cfg.ContainerSelectors {
		els := p.doc.Find(selector)
		if els.Length() == 0 {
			continue
		}
		return e.fromListings(els, p.source)
	}
	return nil
}

// attributePass scans for any element whose class or id hints at a listing.
// Only innermost matches are kept so a hinted wrapper does not shadow the
// items inside it.
func (e *Extractor) attributePass(p page) []scout.Business {
	if p.doc == nil {
		return nil
	}
	els := p.doc.Find("div, section, li, article").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hasListingHint(s)
	})
	leaves := els.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("div, section, li, article").FilterFunction(func(_ int, inner *goquery.Selection) bool {
			return hasListingHint(inner)
		}).Length() == 0
	})
	if leaves.Length() == 0 {
		return nil
	}
	return e.fromListings(leaves, p.source)
}

func hasListingHint(s *goquery.Selection) bool {
	attrs := strings.ToLower(s.AttrOr("class", "") + " " + s.AttrOr("id", ""))
	for _, hint := range listingHints {
		if strings.Contains(attrs, hint) {
			return true
		}
	}
	return false
}

// siblingPass looks for repeated structure: a container with three or more
// children sharing tag name and class, implying a rendered list of items.
func (e *Extractor) siblingPass(p page) []scout.Business {
	if p.doc == nil {
		return nil
	}
	var items *goquery.Selection
	p.doc.Find("div, ul, ol, section, tbody").EachWithBreak(func(_ int, container *goquery.Selection) bool {
		groups := make(map[string]int)
		container.Children().Each(func(_ int, child *goquery.Selection) {
			groups[siblingKey(child)]++
		})
		for key, n := range groups {
			if n < 3 {
				continue
			}
			match := key
			items = container.Children().FilterFunction(func(_ int, child *goquery.Selection) bool {
				return siblingKey(child) == match
			})
			return false
		}
		return true
	})
	if items == nil || items.Length() == 0 {
		return nil
	}
	return e.fromListings(items, p.source)
}

func siblingKey(s *goquery.Selection) string {
	return goquery.NodeName(s) + "|" + s.AttrOr("class", "")
}

// headingPass salvages bare names from heading-like elements when nothing
// structural was found, synthesizing a placeholder website per name.
func (e *Extractor) headingPass(p page) []scout.Business {
	if p.doc == nil {
		return nil
	}
	var out []scout.Business
	seen := make(map[string]struct{})
	p.doc.Find("h2, h3, h4, .name, [class*=title]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := cleanText(s.Text())
		if len(name) < 3 {
			return true
		}
		if _, dup := seen[name]; dup {
			return true
		}
		seen[name] = struct{}{}
		out = append(out, scout.Business{
			Name:    name,
			Website: scout.NormalizeWebsite(placeholderWebsite(name)),
			Source:  p.source,
		})
		return len(out) < e.cfg.MaxElements
	})
	return out
}

// regexPass is the terminal strategy: raw-text matching against listing-like
// div blocks, for pages whose markup defeated the DOM passes entirely.
func (e *Extractor) regexPass(p page) []scout.Business {
	var out []scout.Business
	for _, m := range blockRe.FindAllStringSubmatch(p.html, e.cfg.MaxElements) {
		block := m[1]
		var name string
		if hm := headingRe.FindStringSubmatch(block); hm != nil {
			name = cleanText(tagRe.ReplaceAllString(hm[1], " "))
		}
		if name == "" {
			continue
		}
		website := ""
		if am := hrefRe.FindStringSubmatch(block); am != nil {
			website = unwrapRedirect(am[1])
		}
		if website == "" {
			website = placeholderWebsite(name)
		}
		b := scout.Business{
			Name:    name,
			Website: scout.NormalizeWebsite(website),
			Source:  p.source,
		}
		if phone := phoneRe.FindString(block); phone != "" {
			b.Phone = phone
		}
		out = append(out, b)
	}
	return out
}

// fromListings extracts one record per listing element, capped for bounded
// latency, dropping elements without a usable name.
func (e *Extractor) fromListings(els *goquery.Selection, source string) []scout.Business {
	var out []scout.Business
	els.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= e.cfg.MaxElements {
			return false
		}
		if b, ok := e.fromListing(s, source); ok {
			out = append(out, b)
		}
		return true
	})
	return out
}

func (e *Extractor) fromListing(s *goquery.Selection, source string) (scout.Business, bool) {
	name := ""
	for _, selector := range e.cfg.NameSelectors {
		name = cleanText(s.Find(selector).First().Text())
		if name != "" {
			break
		}
	}
	if name == "" {
		return scout.Business{}, false
	}

	website := websiteFrom(s)
	if website == "" {
		website = placeholderWebsite(name)
	}

	phone := ""
	for _, selector := range e.cfg.PhoneSelectors {
		phone = phoneRe.FindString(cleanText(s.Find(selector).First().Text()))
		if phone != "" {
			break
		}
	}
	if phone == "" {
		phone = phoneRe.FindString(s.Text())
	}

	return scout.Business{
		Name:    name,
		Website: scout.NormalizeWebsite(website),
		Phone:   phone,
		Source:  source,
	}, true
}

// websiteFrom picks the best anchor inside a listing: an explicit "website"
// link beats a bare http link, and wrapped redirect URLs are unwrapped.
func websiteFrom(s *goquery.Selection) string {
	var explicit, bare string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			return true
		}
		marker := strings.ToLower(href + " " + a.AttrOr("class", "") + " " + a.Text())
		if strings.Contains(marker, "website") {
			explicit = unwrapRedirect(href)
			return false
		}
		if bare == "" && strings.HasPrefix(href, "http") {
			bare = unwrapRedirect(href)
		}
		return true
	})
	if explicit != "" {
		return explicit
	}
	return bare
}

// unwrapRedirect decodes directory redirect links of the form
// /track?redirect=https%3A%2F%2Facme.com, checking the usual wrapper params.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	q := u.Query()
	for _, param := range []string{"redirect", "url", "website"} {
		if wrapped := q.Get(param); strings.HasPrefix(wrapped, "http") {
			return wrapped
		}
	}
	return href
}

// placeholderWebsite derives a stand-in domain from a business name so the
// record still participates in website-keyed dedup.
func placeholderWebsite(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
		if sb.Len() >= 20 {
			break
		}
	}
	slug := sb.String()
	if slug == "" {
		slug = "unknown"
	}
	return slug + ".com"
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
