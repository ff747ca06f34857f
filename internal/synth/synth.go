// Package synth generates plausible sample listings for a location, used as
// the terminal fallback when no real data is recoverable.
package synth

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/leadscout/leadscout/internal/scout"
)

type archetype struct {
	kind    string
	domains []string
}

// The catalog intentionally reads like a small-town main street.
var catalog = []archetype{
	{kind: "Restaurant", domains: []string{"eats", "kitchen", "dining"}},
	{kind: "Cafe", domains: []string{"coffee", "roasters", "brews"}},
	{kind: "Hardware Store", domains: []string{"hardware", "tools"}},
	{kind: "Bakery", domains: []string{"bakery", "breads"}},
	{kind: "Auto Repair", domains: []string{"auto", "motors", "garage"}},
	{kind: "Hair Salon", domains: []string{"salon", "styles"}},
	{kind: "Dental Clinic", domains: []string{"dental", "smiles"}},
	{kind: "Law Office", domains: []string{"law", "legal"}},
	{kind: "Fitness Studio", domains: []string{"fitness", "gym"}},
	{kind: "Pet Grooming", domains: []string{"pets", "grooming"}},
	{kind: "Florist", domains: []string{"flowers", "blooms"}},
	{kind: "Bookstore", domains: []string{"books", "pages"}},
	{kind: "Plumbing", domains: []string{"plumbing", "pipes"}},
	{kind: "Accounting", domains: []string{"accounting", "tax"}},
	{kind: "Photography", domains: []string{"photo", "studio"}},
}

var nameTemplates = []string{
	"%[1]s %[2]s",
	"%[2]s of %[1]s",
	"The %[1]s %[2]s",
	"%[1]s Family %[2]s",
	"Downtown %[1]s %[2]s",
}

var (
	usAreaCodes = []string{"212", "312", "415", "512", "617", "702", "818"}
	caAreaCodes = []string{"416", "647", "905", "519", "613", "705"}
)

// Generator synthesizes listings. It is pure apart from its random source,
// which is injectable so tests get deterministic output.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator seeded from the wall clock.
func New() *Generator {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand returns a Generator using the given random source.
func NewWithRand(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Synthesize produces 10-15 records for the location's city, one per
// archetype so no business type repeats. Records are tagged SourceMock and
// the call never fails.
func (g *Generator) Synthesize(location string) []scout.Business {
	g.mu.Lock()
	defer g.mu.Unlock()

	city := scout.CityOf(location)
	if city == "" {
		city = "Springfield"
	}

	areaCodes := usAreaCodes
	lower := strings.ToLower(location)
	if strings.Contains(lower, "ontario") || strings.Contains(lower, "canada") {
		areaCodes = caAreaCodes
	}

	count := 10 + g.rng.Intn(6)
	if count > len(catalog) {
		count = len(catalog)
	}
	picks := g.rng.Perm(len(catalog))[:count]

	out := make([]scout.Business, 0, count)
	for _, idx := range picks {
		a := catalog[idx]
		template := nameTemplates[g.rng.Intn(len(nameTemplates))]
		name := fmt.Sprintf(template, city, a.kind)
		domain := a.domains[g.rng.Intn(len(a.domains))]
		website := fmt.Sprintf("%s%s.com", scout.Slugify(city), domain)
		out = append(out, scout.Business{
			Name:    name,
			Website: website,
			Phone:   g.phone(areaCodes),
			Source:  scout.SourceMock,
		})
	}
	return out
}

func (g *Generator) phone(areaCodes []string) string {
	area := areaCodes[g.rng.Intn(len(areaCodes))]
	return fmt.Sprintf("(%s) %03d-%04d", area, 200+g.rng.Intn(800), g.rng.Intn(10000))
}
