package synth

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leadscout/leadscout/internal/scout"
)

func TestSynthesizeCountAndTagging(t *testing.T) {
	t.Parallel()

	g := NewWithRand(rand.New(rand.NewSource(1)))
	for i := 0; i < 20; i++ {
		records := g.Synthesize("Toronto, Ontario")
		require.GreaterOrEqual(t, len(records), 10)
		require.LessOrEqual(t, len(records), 15)
		for _, b := range records {
			require.NotEmpty(t, b.Name)
			require.NotEmpty(t, b.Website)
			require.Equal(t, scout.SourceMock, b.Source)
			require.Contains(t, b.Name, "Toronto")
		}
	}
}

func TestSynthesizeNoDuplicateArchetypes(t *testing.T) {
	t.Parallel()

	g := NewWithRand(rand.New(rand.NewSource(2)))
	records := g.Synthesize("Austin, Texas")

	kinds := make(map[string]bool)
	for _, b := range records {
		// Every catalog kind appears verbatim in the generated name.
		matched := ""
		for _, a := range catalog {
			if strings.Contains(b.Name, a.kind) {
				matched = a.kind
				break
			}
		}
		require.NotEmpty(t, matched, "name %q should embed a catalog kind", b.Name)
		require.False(t, kinds[matched], "archetype %q repeated", matched)
		kinds[matched] = true
	}
}

func TestSynthesizeAreaCodes(t *testing.T) {
	t.Parallel()

	phoneRe := regexp.MustCompile(`^\((\d{3})\) \d{3}-\d{4}$`)
	inSet := func(code string, set []string) bool {
		for _, c := range set {
			if c == code {
				return true
			}
		}
		return false
	}

	g := NewWithRand(rand.New(rand.NewSource(3)))

	for _, b := range g.Synthesize("Ottawa, Ontario, Canada") {
		m := phoneRe.FindStringSubmatch(b.Phone)
		require.NotNil(t, m, "phone %q", b.Phone)
		require.True(t, inSet(m[1], caAreaCodes), "expected Canadian area code, got %s", m[1])
	}

	for _, b := range g.Synthesize("Portland, Oregon") {
		m := phoneRe.FindStringSubmatch(b.Phone)
		require.NotNil(t, m, "phone %q", b.Phone)
		require.True(t, inSet(m[1], usAreaCodes), "expected US area code, got %s", m[1])
	}
}

func TestSynthesizeDeterministicWithSeed(t *testing.T) {
	t.Parallel()

	a := NewWithRand(rand.New(rand.NewSource(99))).Synthesize("Calgary, Alberta, Canada")
	b := NewWithRand(rand.New(rand.NewSource(99))).Synthesize("Calgary, Alberta, Canada")
	require.Equal(t, a, b)
}

func TestSynthesizeEmptyLocationStillSucceeds(t *testing.T) {
	t.Parallel()

	records := New().Synthesize("")
	require.GreaterOrEqual(t, len(records), 10)
}
