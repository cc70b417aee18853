// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsplit_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripsplit_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	BalanceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripsplit_balance_calculation_seconds",
		Help:    "Time spent loading and settling a trip's balances.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	SettlementsPerCalculation = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripsplit_settlements_per_calculation",
		Help:    "Number of transfers in each computed settlement plan.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
	})

	SkippedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsplit_integrity_skipped_records_total",
		Help: "Spend records skipped by the balance engine, by reason.",
	}, []string{"reason"})

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_debt_reminders_sent_total",
		Help: "Debt reminder emails handed to the mail provider.",
	})
)
