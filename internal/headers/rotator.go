// Package headers produces randomized, plausible request identities so
// consecutive fetches do not share an obvious fingerprint.
package headers

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

type browserProfile struct {
	userAgent string
	accept    string
	secChUA   string
	platform  string
}

var profiles = []browserProfile{
	{
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		accept:    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		secChUA:   `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
		platform:  `"Windows"`,
	},
	{
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		accept:    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		secChUA:   `"Not/A)Brand";v="8", "Chromium";v="125", "Google Chrome";v="125"`,
		platform:  `"macOS"`,
	},
	{
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
		accept:    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	},
	{
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		accept:    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	},
	{
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		accept:    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		secChUA:   `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
		platform:  `"Linux"`,
	},
	{
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
		accept:    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		secChUA:   `"Not/A)Brand";v="8", "Chromium";v="124", "Microsoft Edge";v="124"`,
		platform:  `"Windows"`,
	},
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-US,en;q=0.8",
	"en-CA,en;q=0.9,fr-CA;q=0.6",
	"en-GB,en;q=0.9,en-US;q=0.8",
	"en-US,en;q=0.9,es;q=0.5",
}

var defaultReferers = []string{
	"https://www.google.com/",
	"https://www.bing.com/",
	"https://duckduckgo.com/",
}

// Rotator builds a fresh header set per call. Calls are independent: no
// identity persists between them.
type Rotator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Rotator seeded from the wall clock.
func New() *Rotator {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand returns a Rotator using the given random source, letting tests
// pin the sequence.
func NewWithRand(rng *rand.Rand) *Rotator {
	return &Rotator{rng: rng}
}

// Next picks a browser profile uniformly at random and assembles the matching
// headers plus a synthesized session cookie. When refererOverride is empty a
// plausible search-engine referer is chosen instead.
func (r *Rotator) Next(refererOverride string) http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := profiles[r.rng.Intn(len(profiles))]

	h := http.Header{}
	h.Set("User-Agent", p.userAgent)
	h.Set("Accept", p.accept)
	h.Set("Accept-Language", acceptLanguages[r.rng.Intn(len(acceptLanguages))])
	// Accept-Encoding is left to the transport so response bodies arrive
	// decompressed.
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Cache-Control", "max-age=0")

	referer := refererOverride
	if referer == "" {
		referer = defaultReferers[r.rng.Intn(len(defaultReferers))]
	}
	h.Set("Referer", referer)
	h.Set("Cookie", r.sessionCookie())

	if strings.Contains(p.userAgent, "Chrome") {
		h.Set("Sec-Ch-Ua", p.secChUA)
		h.Set("Sec-Ch-Ua-Mobile", "?0")
		h.Set("Sec-Ch-Ua-Platform", p.platform)
		h.Set("Sec-Fetch-Dest", "document")
		h.Set("Sec-Fetch-Mode", "navigate")
		h.Set("Sec-Fetch-Site", "cross-site")
	}

	return h
}

// sessionCookie fabricates a session id plus a GA-style analytics pair with
// a timestamp in the recent past, matching what a returning visitor carries.
func (r *Rotator) sessionCookie() string {
	sessionID := fmt.Sprintf("%016x", r.rng.Uint64())
	visitedAt := time.Now().Add(-time.Duration(1+r.rng.Intn(72)) * time.Hour).Unix()
	ga := fmt.Sprintf("GA1.2.%09d.%d", r.rng.Intn(1_000_000_000), visitedAt)
	gid := fmt.Sprintf("GA1.2.%09d.%d", r.rng.Intn(1_000_000_000), visitedAt)
	return fmt.Sprintf("session_id=%s; _ga=%s; _gid=%s", sessionID, ga, gid)
}
