package scout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeWebsite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain host", in: "acme.com", want: "acme.com"},
		{name: "https and slash", in: "https://acme.com/", want: "acme.com"},
		{name: "http", in: "http://Acme.COM", want: "acme.com"},
		{name: "whitespace", in: "  acme.com/ ", want: "acme.com"},
		{name: "path preserved", in: "https://acme.com/about", want: "acme.com/about"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, NormalizeWebsite(tt.in))
		})
	}
}

func TestNormalizeWebsiteIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://acme.com/",
		"HTTP://Example.Org/shop/",
		"already-normal.net",
		"http://http.example.com",
		"",
	}
	for _, in := range inputs {
		once := NormalizeWebsite(in)
		require.Equal(t, once, NormalizeWebsite(once), "input %q", in)
	}
}

func TestDedupByWebsite(t *testing.T) {
	t.Parallel()

	in := []Business{
		{Name: "Acme", Website: "http://acme.com/", Source: "yellowpages"},
		{Name: "Acme Inc", Website: "acme.com", Source: "localstack"},
		{Name: "Beta", Website: "beta.io"},
		{Name: "Nameless site", Website: ""},
		{Name: "Beta again", Website: "https://BETA.io"},
	}
	out := DedupByWebsite(in)

	require.Len(t, out, 2)
	require.Equal(t, "acme.com", out[0].Website)
	require.Equal(t, "Acme", out[0].Name, "first occurrence wins")
	require.Equal(t, "beta.io", out[1].Website)

	// Output websites are a subset of the normalized input websites.
	inputSet := make(map[string]bool)
	for _, b := range in {
		inputSet[NormalizeWebsite(b.Website)] = true
	}
	for _, b := range out {
		require.True(t, inputSet[b.Website])
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Toronto, Ontario", want: "toronto-ontario"},
		{in: "  New York City  ", want: "new-york-city"},
		{in: "St. John's", want: "st-john-s"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestCityOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Toronto", CityOf("Toronto, Ontario, Canada"))
	require.Equal(t, "Austin", CityOf("Austin"))
	require.Equal(t, "Springfield", CityOf("  Springfield , IL"))
}
