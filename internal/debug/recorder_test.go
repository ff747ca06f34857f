package debug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorderCapturesWhenActive(t *testing.T) {
	t.Parallel()

	r := NewRecorder(zap.NewNop(), true)
	r.Log("trying candidate", zap.String("url", "https://yp.test/1"))
	r.Log("no records")
	r.CaptureHTMLSample("https://yp.test/1", "<html>short</html>")

	bundle := r.Drain()
	require.Len(t, bundle.Logs, 2)
	require.Contains(t, bundle.Logs[0], "trying candidate")
	require.Contains(t, bundle.Logs[0], "https://yp.test/1")
	require.Len(t, bundle.HTMLSamples, 1)
	require.Equal(t, "<html>short</html>", bundle.HTMLSamples[0].Sample)
	require.Equal(t, len("<html>short</html>"), bundle.HTMLSamples[0].Length)
}

func TestRecorderTruncatesSamples(t *testing.T) {
	t.Parallel()

	r := NewRecorder(zap.NewNop(), true)
	big := strings.Repeat("a", 5000)
	r.CaptureHTMLSample("https://yp.test/big", big)

	bundle := r.Drain()
	require.Len(t, bundle.HTMLSamples, 1)
	s := bundle.HTMLSamples[0]
	require.Equal(t, 5000, s.Length)
	require.LessOrEqual(t, len(s.Sample), 1013)
	require.True(t, strings.HasSuffix(s.Sample, truncationMarker))
}

func TestRecorderInactiveStillLogsOperationally(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zap.InfoLevel)
	r := NewRecorder(zap.New(core), false)

	r.Log("candidate failed", zap.String("url", "https://yp.test/2"))
	r.CaptureHTMLSample("https://yp.test/2", "<html></html>")

	bundle := r.Drain()
	require.Empty(t, bundle.Logs, "inactive recorder must not buffer")
	require.Empty(t, bundle.HTMLSamples)
	require.Equal(t, 1, observed.FilterMessage("candidate failed").Len(),
		"operational logging is always on")
}

func TestRecorderNilLogger(t *testing.T) {
	t.Parallel()

	r := NewRecorder(nil, true)
	r.Log("still works")
	require.Len(t, r.Drain().Logs, 1)
}
