package headers

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextCoversUserAgentPool(t *testing.T) {
	t.Parallel()

	r := NewWithRand(rand.New(rand.NewSource(1)))
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[r.Next("").Get("User-Agent")] = true
	}
	require.GreaterOrEqual(t, len(seen), 5, "expected the full pool to rotate")
}

func TestNextChromeClientHints(t *testing.T) {
	t.Parallel()

	r := NewWithRand(rand.New(rand.NewSource(7)))
	for i := 0; i < 100; i++ {
		h := r.Next("")
		ua := h.Get("User-Agent")
		if strings.Contains(ua, "Chrome") {
			require.NotEmpty(t, h.Get("Sec-Ch-Ua"), "chrome UA %q should carry client hints", ua)
			require.Equal(t, "?0", h.Get("Sec-Ch-Ua-Mobile"))
			require.NotEmpty(t, h.Get("Sec-Ch-Ua-Platform"))
		} else {
			require.Empty(t, h.Get("Sec-Ch-Ua"), "non-chrome UA %q should not carry client hints", ua)
		}
	}
}

func TestNextSessionCookieShape(t *testing.T) {
	t.Parallel()

	cookieRe := regexp.MustCompile(`^session_id=[0-9a-f]{16}; _ga=GA1\.2\.\d{9}\.\d+; _gid=GA1\.2\.\d{9}\.\d+$`)

	r := NewWithRand(rand.New(rand.NewSource(42)))
	for i := 0; i < 20; i++ {
		cookie := r.Next("").Get("Cookie")
		require.Regexp(t, cookieRe, cookie)
	}
}

func TestNextRefererOverride(t *testing.T) {
	t.Parallel()

	r := NewWithRand(rand.New(rand.NewSource(3)))
	h := r.Next("https://www.yellowpages.com/")
	require.Equal(t, "https://www.yellowpages.com/", h.Get("Referer"))

	h = r.Next("")
	require.True(t, strings.HasPrefix(h.Get("Referer"), "https://"), "default referer should be set")
}

func TestNextAlwaysCarriesBaseHeaders(t *testing.T) {
	t.Parallel()

	r := New()
	h := r.Next("")
	for _, key := range []string{"User-Agent", "Accept", "Accept-Language", "Cookie", "Referer"} {
		require.NotEmpty(t, h.Get(key), "missing %s", key)
	}
}
