package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	framesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emili_frames_published_total",
		Help: "Annotated frames handed to the display",
	})

	framesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emili_frames_skipped_total",
		Help: "Loop iterations that produced no frame, grouped by reason",
	}, []string{"reason"})

	pipelineLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "emili_pipeline_latency_seconds",
		Help:    "Time spent in the FER pipeline per frame",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	chatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emili_chat_messages_total",
		Help: "Chat messages grouped by role",
	}, []string{"role"})
)

func ObserveFramePublished() {
	framesPublished.Inc()
}

// ObserveFrameSkipped records a frame dropped for reason ("no_frame", "no_image", "pipeline_error").
func ObserveFrameSkipped(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	framesSkipped.WithLabelValues(reason).Inc()
}

func ObservePipeline(d time.Duration) {
	pipelineLatency.Observe(d.Seconds())
}

func ObserveChatMessage(role string) {
	if role == "" {
		role = "unknown"
	}
	chatMessages.WithLabelValues(role).Inc()
}

// Handler exposes /metrics and /healthz.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
