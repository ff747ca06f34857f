// Package collyfetcher implements scout.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/leadscout/leadscout/internal/scout"
)

const defaultTimeout = 10 * time.Second

// Config controls collector behavior.
type Config struct {
	Timeout time.Duration
}

// Fetcher performs single GETs through a cloned Colly collector per request,
// classifying every failure into a scout.FetchKind so callers never see a
// raw error.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(
		colly.Async(false),
		colly.IgnoreRobotsTxt(),
		// Clones share the visited-URL store, and retries plus repeat
		// scrapes of a location hit the same candidate URLs again.
		colly.AllowURLRevisit(),
	)
	c.WithTransport(newHTTPTransport())
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes one HTTP GET with the injected headers and a hard timeout.
// Cancellation and timeouts surface as scout.FetchTimeout, never as a panic
// or error return.
func (f *Fetcher) Fetch(ctx context.Context, request scout.FetchRequest) scout.FetchOutcome {
	timeout := request.Timeout
	if timeout == 0 {
		timeout = f.cfg.Timeout
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}

	collector := f.baseCollector.Clone()
	collector.SetRequestTimeout(timeout)

	var (
		statusCode int
		body       []byte
		respErr    error
	)
	collector.OnRequest(func(r *colly.Request) {
		copyHeaders(request.Headers, r)
	})
	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
			body = append([]byte(nil), r.Body...)
		}
		respErr = err
	})

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(request.URL)
	}()

	select {
	case <-ctx.Done():
		return scout.FetchOutcome{
			Kind:     scout.FetchTimeout,
			Err:      ctx.Err(),
			Duration: time.Since(start),
		}
	case visitErr := <-done:
		err := visitErr
		if err == nil {
			err = respErr
		}
		return classify(statusCode, body, err, time.Since(start))
	}
}

func classify(status int, body []byte, err error, elapsed time.Duration) scout.FetchOutcome {
	out := scout.FetchOutcome{
		StatusCode: status,
		Body:       body,
		Err:        err,
		Duration:   elapsed,
	}
	switch {
	case err == nil && status >= 200 && status < 300:
		out.Kind = scout.FetchOK
	case status >= 300:
		out.Kind = scout.FetchHTTPError
	case isTimeout(err):
		out.Kind = scout.FetchTimeout
	default:
		out.Kind = scout.FetchNetworkError
	}
	return out
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func copyHeaders(headers http.Header, r *colly.Request) {
	for key, values := range headers {
		for i, v := range values {
			if i == 0 {
				r.Headers.Set(key, v)
				continue
			}
			r.Headers.Add(key, v)
		}
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
