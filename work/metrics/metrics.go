package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RelayRequests counts relay requests by outcome. The "kind" label is
// "playlist" or "segment" ("unknown" when the fetch never succeeded);
// "outcome" separates "ok" from the failure classes.
var RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamhub_relay_requests_total",
	Help: "Relay requests by kind and outcome",
}, []string{"kind", "outcome"})

// RelayBytes tracks bytes streamed through the relay to clients.
// This metric is a counter and only increases.
var RelayBytes = promauto.NewCounter(prometheus.CounterOpts{
	Name: "streamhub_relay_bytes_total",
	Help: "Total bytes streamed to clients through the relay",
})

// ActiveRelayStreams tracks relay requests currently streaming. This is
// a gauge that rises and falls as clients connect and disconnect.
var ActiveRelayStreams = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "streamhub_relay_active_streams",
	Help: "Relay requests currently in flight",
})

// CatalogEntries reports the size of the current snapshot per entity kind.
var CatalogEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "streamhub_catalog_entries",
	Help: "Entries in the current catalog snapshot",
}, []string{"kind"})

// RefreshCycles counts refresh cycles per entity kind and result
// ("ok", "empty", "error").
var RefreshCycles = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamhub_refresh_cycles_total",
	Help: "Catalog refresh cycles by kind and result",
}, []string{"kind", "result"})

// ProbeResults counts reachability probes by result ("reachable", "unreachable").
var ProbeResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamhub_probe_results_total",
	Help: "Reachability probe results",
}, []string{"result"})
