package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leadscout/leadscout/internal/debug"
	"github.com/leadscout/leadscout/internal/notify/memory"
	"github.com/leadscout/leadscout/internal/scout"
	"github.com/leadscout/leadscout/internal/synth"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// stubScraper returns canned records, optionally panicking or blocking until
// the context is cancelled.
type stubScraper struct {
	name    string
	records []scout.Business
	panics  bool
	block   bool
}

func (s *stubScraper) Name() string { return s.name }

func (s *stubScraper) Scrape(ctx context.Context, _ string, _ scout.Recorder) []scout.Business {
	if s.panics {
		panic("selector exploded")
	}
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.records
}

type memStore struct {
	mu       sync.Mutex
	upserted []scout.Business
	err      error
}

func (m *memStore) UpsertByWebsite(_ context.Context, _ string, businesses []scout.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, businesses...)
	return m.err
}

func biz(name, website, source string) scout.Business {
	return scout.Business{Name: name, Website: website, Source: source}
}

func newOrchestrator(t *testing.T, scrapers []scout.SourceScraper, opts ...Option) *Orchestrator {
	t.Helper()
	return New(
		Config{Budget: 5 * time.Second, Topic: "scrapes"},
		scrapers,
		synth.NewWithRand(rand.New(rand.NewSource(7))),
		fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		nil,
		opts...,
	)
}

func rec() scout.Recorder { return debug.NewRecorder(nil, false) }

func TestScrapeRejectsEmptyLocation(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, nil)
	_, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "   "}, rec())
	require.ErrorIs(t, err, ErrEmptyLocation)
}

func TestScrapeRejectsUnknownSource(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, []scout.SourceScraper{
		&stubScraper{name: "yellowpages"},
	})
	_, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto", Source: "bizbook"}, rec())
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestScrapeMergesAndDeduplicates(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, []scout.SourceScraper{
		&stubScraper{name: "yellowpages", records: []scout.Business{
			biz("Acme Hardware", "acme.com", "yellowpages"),
			biz("Beta Bakery", "beta.com", "yellowpages"),
		}},
		&stubScraper{name: "localstack", records: []scout.Business{
			biz("Acme Hardware Inc", "https://acme.com/", "localstack"),
			biz("Gamma Motors", "gamma.com", "localstack"),
		}},
	})

	resp, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto"}, rec())
	require.NoError(t, err)

	require.Equal(t, 3, resp.Count, "acme.com appears once after normalization")
	require.Equal(t, "yellowpages+localstack", resp.Source)
	require.Equal(t, 4, resp.Stats.Total)
	require.Equal(t, 3, resp.Stats.Unique)
	require.Equal(t, "Acme Hardware", resp.Businesses[0].Name, "first occurrence wins")
	require.True(t, resp.Stats.Sources["yellowpages"].Success)
	require.True(t, resp.Stats.Sources["localstack"].Success)
	require.Equal(t, 2, resp.Stats.Sources["localstack"].Count)
	require.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), resp.Timestamp)
}

func TestScrapeSingleSourceFilter(t *testing.T) {
	t.Parallel()

	yellow := &stubScraper{name: "yellowpages", records: []scout.Business{
		biz("Acme Hardware", "acme.com", "yellowpages"),
	}}
	local := &stubScraper{name: "localstack", records: []scout.Business{
		biz("Gamma Motors", "gamma.com", "localstack"),
	}}
	o := newOrchestrator(t, []scout.SourceScraper{yellow, local})

	resp, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto", Source: "LocalStack"}, rec())
	require.NoError(t, err)

	require.Equal(t, "localstack", resp.Source)
	require.Equal(t, 1, resp.Count)
	require.NotContains(t, resp.Stats.Sources, "yellowpages")
}

func TestScrapeFallsBackToMockPool(t *testing.T) {
	t.Parallel()

	// Every source already fell back internally and returned mock records.
	o := newOrchestrator(t, []scout.SourceScraper{
		&stubScraper{name: "yellowpages", records: []scout.Business{
			biz("Toronto Plumbing Co", "torontoplumbingco.com", scout.SourceMock),
			biz("Toronto Dental Care", "torontodentalcare.com", scout.SourceMock),
		}},
		&stubScraper{name: "localstack", records: []scout.Business{
			biz("Toronto Plumbing Co", "torontoplumbingco.com", scout.SourceMock),
		}},
	})

	resp, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto"}, rec())
	require.NoError(t, err)

	require.Equal(t, scout.SourceMock, resp.Source)
	require.Equal(t, 2, resp.Count)
	for _, b := range resp.Businesses {
		require.Equal(t, scout.SourceMock, b.Source)
	}
	require.False(t, resp.Stats.Sources["yellowpages"].Success)
	require.Equal(t, 0, resp.Stats.Sources["yellowpages"].Count, "mock records do not count as real")
	mock := resp.Stats.Sources[scout.SourceMock]
	require.True(t, mock.Used)
	require.Equal(t, 2, mock.Count)
}

func TestScrapeSafetyNetWhenSourcesReturnNothing(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, []scout.SourceScraper{
		&stubScraper{name: "yellowpages"},
	})

	resp, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto"}, rec())
	require.NoError(t, err)

	require.NotEmpty(t, resp.Businesses, "a scrape never returns an empty result")
	require.Equal(t, scout.SourceMock, resp.Source)
	require.True(t, resp.Stats.Sources[scout.SourceMock].Used)
}

func TestScrapeIsolatesPanickingSource(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, []scout.SourceScraper{
		&stubScraper{name: "yellowpages", panics: true},
		&stubScraper{name: "localstack", records: []scout.Business{
			biz("Gamma Motors", "gamma.com", "localstack"),
		}},
	})

	resp, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto"}, rec())
	require.NoError(t, err)

	require.Equal(t, "localstack", resp.Source)
	require.Equal(t, 1, resp.Count)
	yp := resp.Stats.Sources["yellowpages"]
	require.False(t, yp.Success)
	require.Contains(t, yp.Error, "panic")
}

func TestScrapeHonorsBudget(t *testing.T) {
	t.Parallel()

	o := New(
		Config{Budget: 50 * time.Millisecond, Topic: "scrapes"},
		[]scout.SourceScraper{&stubScraper{name: "yellowpages", block: true}},
		synth.NewWithRand(rand.New(rand.NewSource(7))),
		fixedClock{now: time.Now()},
		nil,
	)

	start := time.Now()
	resp, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto"}, rec())
	require.NoError(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, scout.SourceMock, resp.Source, "budget expiry still yields mock data")
}

func TestScrapeMockSourceBypassesScrapers(t *testing.T) {
	t.Parallel()

	yellow := &stubScraper{name: "yellowpages", records: []scout.Business{
		biz("Acme Hardware", "acme.com", "yellowpages"),
	}}
	o := newOrchestrator(t, []scout.SourceScraper{yellow})

	resp, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto", Source: "mock"}, rec())
	require.NoError(t, err)

	require.Equal(t, scout.SourceMock, resp.Source)
	require.NotEmpty(t, resp.Businesses)
	require.NotContains(t, resp.Stats.Sources, "yellowpages")
}

func TestScrapePersistsRealRecords(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	o := newOrchestrator(t, []scout.SourceScraper{
		&stubScraper{name: "yellowpages", records: []scout.Business{
			biz("Acme Hardware", "acme.com", "yellowpages"),
		}},
	}, WithStore(store))

	_, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto"}, rec())
	require.NoError(t, err)
	require.Len(t, store.upserted, 1)
	require.Equal(t, "acme.com", store.upserted[0].Website)
}

func TestScrapeDoesNotPersistMockRecords(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	o := newOrchestrator(t, []scout.SourceScraper{
		&stubScraper{name: "yellowpages"},
	}, WithStore(store))

	_, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto"}, rec())
	require.NoError(t, err)
	require.Empty(t, store.upserted)
}

func TestScrapeStoreFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	store := &memStore{err: errors.New("connection refused")}
	o := newOrchestrator(t, []scout.SourceScraper{
		&stubScraper{name: "yellowpages", records: []scout.Business{
			biz("Acme Hardware", "acme.com", "yellowpages"),
		}},
	}, WithStore(store))

	resp, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto"}, rec())
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
}

func TestScrapePublishesCompletionEvent(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	o := newOrchestrator(t, []scout.SourceScraper{
		&stubScraper{name: "yellowpages", records: []scout.Business{
			biz("Acme Hardware", "acme.com", "yellowpages"),
		}},
	}, WithPublisher(pub))

	_, err := o.Scrape(context.Background(), scout.ScrapeRequest{Location: "Toronto"}, rec())
	require.NoError(t, err)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "scrapes", msgs[0].Topic)
	event, ok := msgs[0].Payload.(ScrapeEvent)
	require.True(t, ok)
	require.Equal(t, "Toronto", event.Location)
	require.Equal(t, "yellowpages", event.Source)
	require.Equal(t, 1, event.Count)
}
