// Package metrics exposes the Prometheus instrumentation for the serving
// protocol and the bundle source's descriptor cache, following the same
// promauto-registered counter/histogram idiom the retrieval pack's
// service-shaped repo uses for its own request and index-lookup metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestsTotal counts protocol.BundleProtocol.Handle invocations by
// resolved HTTP status code.
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wvb_protocol_requests_total",
		Help: "Total number of bundle protocol requests handled, by status code.",
	},
	[]string{"status"},
)

// RequestDuration tracks how long Handle takes to produce a response.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "wvb_protocol_request_duration_seconds",
		Help:    "Latency of bundle protocol requests.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"status"},
)

// DescriptorCacheTotal counts source.Source.LoadDescriptor outcomes by
// whether the descriptor was already cached.
var DescriptorCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wvb_source_descriptor_cache_total",
		Help: "Total descriptor cache lookups, partitioned by hit or miss.",
	},
	[]string{"result"},
)

// DescriptorsLoaded reports the current number of cached descriptors.
var DescriptorsLoaded = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "wvb_source_descriptors_loaded",
		Help: "Number of bundle descriptors currently held in the cache.",
	},
	[]string{"tier"},
)
