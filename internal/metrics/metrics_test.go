package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFrameSkippedDefaultsReason(t *testing.T) {
	before := testutil.ToFloat64(framesSkipped.WithLabelValues("unknown"))

	ObserveFrameSkipped("")

	assert.Equal(t, before+1, testutil.ToFloat64(framesSkipped.WithLabelValues("unknown")))
}

func TestObserveChatMessageCountsByRole(t *testing.T) {
	before := testutil.ToFloat64(chatMessages.WithLabelValues("user"))

	ObserveChatMessage("user")
	ObserveChatMessage("user")

	assert.Equal(t, before+2, testutil.ToFloat64(chatMessages.WithLabelValues("user")))
}

func TestHandlerServesMetricsAndHealth(t *testing.T) {
	ObserveFramePublished()
	ObservePipeline(30 * time.Millisecond)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "emili_frames_published_total")
	assert.Contains(t, string(body), "emili_pipeline_latency_seconds")
}
