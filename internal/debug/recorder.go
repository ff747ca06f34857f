// Package debug implements the request-scoped debug recorder. Each request
// gets its own instance so concurrent scrapes never interleave captures.
package debug

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/leadscout/leadscout/internal/scout"
)

// Stored samples never exceed 1013 bytes: 1000 of page content plus the
// marker.
const (
	sampleLimit      = 1000
	truncationMarker = "...truncated"
)

// Recorder tees pipeline events to the operational log and, when active,
// buffers them for the response's debug bundle.
type Recorder struct {
	logger *zap.Logger
	active bool

	mu      sync.Mutex
	logs    []string
	samples []scout.HTMLSample
}

// NewRecorder builds a Recorder. When active is false the recorder still
// forwards to the operational log but captures nothing.
func NewRecorder(logger *zap.Logger, active bool) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger, active: active}
}

// Log writes to the operational log unconditionally and buffers a rendered
// line when debug capture is on.
func (r *Recorder) Log(message string, fields ...zap.Field) {
	r.logger.Info(message, fields...)
	if !r.active {
		return
	}
	line := message
	if len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(enc)
		}
		line = fmt.Sprintf("%s %v", message, enc.Fields)
	}
	r.mu.Lock()
	r.logs = append(r.logs, line)
	r.mu.Unlock()
}

// CaptureHTMLSample stores a bounded page snippet for the debug bundle.
// Stored samples are truncated to keep per-request memory flat no matter how
// large the fetched page was.
func (r *Recorder) CaptureHTMLSample(url string, html string) {
	r.logger.Debug("captured html sample",
		zap.String("url", url),
		zap.Int("length", len(html)),
	)
	if !r.active {
		return
	}
	sample := html
	if len(sample) > sampleLimit {
		sample = sample[:sampleLimit] + truncationMarker
	}
	r.mu.Lock()
	r.samples = append(r.samples, scout.HTMLSample{
		URL:    url,
		Length: len(html),
		Sample: sample,
	})
	r.mu.Unlock()
}

// Active reports whether debug capture was requested for this request.
func (r *Recorder) Active() bool {
	return r.active
}

// Drain returns the captured bundle. The recorder is not reused afterwards;
// the bundle lives only as long as the response being written.
func (r *Recorder) Drain() scout.DebugBundle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return scout.DebugBundle{
		Logs:        append([]string(nil), r.logs...),
		HTMLSamples: append([]scout.HTMLSample(nil), r.samples...),
	}
}
