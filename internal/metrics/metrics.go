package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolver and chain-reader counters, partitioned by strategy / outcome.

var (
	// Resolver
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenaccounts",
		Subsystem: "resolver",
		Name:      "resolutions_total",
		Help:      "Total token account resolutions",
	}, []string{"strategy", "outcome"})

	PlannedInstructions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenaccounts",
		Subsystem: "resolver",
		Name:      "planned_instructions_total",
		Help:      "Total instructions emitted in plans",
	}, []string{"phase"})

	AccountsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenaccounts",
		Subsystem: "resolver",
		Name:      "accounts_created_total",
		Help:      "Total plans that create a token account",
	}, []string{"strategy"})

	ResolveLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tokenaccounts",
		Subsystem: "resolver",
		Name:      "resolve_duration_seconds",
		Help:      "Resolve / ResolveMany duration including the account fetch",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"mode"})

	// Chain reader
	FetchRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tokenaccounts",
		Subsystem: "chainreader",
		Name:      "fetch_requests_total",
		Help:      "Total getMultipleAccounts requests sent",
	})

	FetchedAddresses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tokenaccounts",
		Subsystem: "chainreader",
		Name:      "fetched_addresses_total",
		Help:      "Total addresses queried",
	})

	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tokenaccounts",
		Subsystem: "chainreader",
		Name:      "fetch_errors_total",
		Help:      "Total failed account fetches",
	})

	FetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tokenaccounts",
		Subsystem: "chainreader",
		Name:      "fetch_duration_seconds",
		Help:      "FetchStates duration across all chunks",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// Rent cache
	RentCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenaccounts",
		Subsystem: "cache",
		Name:      "rent_lookups_total",
		Help:      "Rent-exemption lookups by result",
	}, []string{"result"})

	// HTTP
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenaccounts",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total API requests by route and status",
	}, []string{"route", "status"})
)
