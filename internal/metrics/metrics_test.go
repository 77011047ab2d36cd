package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"eip-explainer/internal/domain"
)

func TestObserveTransition(t *testing.T) {
	c := New()
	c.ObserveTransition("AwaitingTopic", domain.OutcomeResolved, 120*time.Millisecond)
	c.ObserveTransition("AwaitingTopic", domain.OutcomeResolved, 80*time.Millisecond)
	c.ObserveTransition("none", domain.OutcomePrompt, time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("AwaitingTopic", "resolved")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("none", "prompt")))
}

func TestObserveImage(t *testing.T) {
	c := New()
	c.ObserveImage(true, time.Millisecond)
	c.ObserveImage(false, time.Millisecond)
	require.Equal(t, 1.0, testutil.ToFloat64(c.images.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.images.WithLabelValues("error")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveTransition("none", domain.OutcomePrompt, time.Second)
	c.ObserveImage(true, time.Second)
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.ObserveTransition("AwaitingMode", domain.OutcomeSummarized, time.Second)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `eip_explainer_frame_transitions_total{from_stage="AwaitingMode",outcome="summarized"} 1`)
}
