package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "feedback",
		Subsystem: "ai",
		Name:      "chat_duration_seconds",
		Help:      "Duration of AI chat completion requests",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"provider", "model"})

	chatFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedback",
		Subsystem: "ai",
		Name:      "chat_failures_total",
		Help:      "Number of AI chat completion failures",
	}, []string{"provider", "model"})
)
