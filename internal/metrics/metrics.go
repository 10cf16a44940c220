// Package metrics exposes Prometheus counters for the client transport.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts outgoing requests by method and result class.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashwise_client_requests_total",
		Help: "Outgoing API requests by method and result.",
	}, []string{"method", "result"})

	// RetriesTotal counts requests replayed after a token refresh.
	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashwise_client_retries_total",
		Help: "Requests replayed once after a 401 and token refresh.",
	})

	// RefreshTotal counts refresh protocol runs by outcome.
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashwise_client_refresh_total",
		Help: "Access token refresh attempts by outcome.",
	}, []string{"outcome"})
)

// Refresh outcome label values.
const (
	RefreshOutcomeSuccess   = "success"
	RefreshOutcomeFailure   = "failure"
	RefreshOutcomeCoalesced = "coalesced"
)
