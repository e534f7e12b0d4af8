// Package metrics holds the prometheus collectors shared by the store,
// the realtime transport and the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the registry every collector below is attached to
	Registry = prometheus.NewRegistry()

	StoreReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatflow",
		Subsystem: "store",
		Name:      "reads_total",
		Help:      "Record reads by record kind.",
	}, []string{"record"})

	StoreWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatflow",
		Subsystem: "store",
		Name:      "writes_total",
		Help:      "Record writes and removals by record kind.",
	}, []string{"record", "op"})

	StoreCorrupt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatflow",
		Subsystem: "store",
		Name:      "corrupt_total",
		Help:      "Records that failed to decode and were read as empty.",
	}, []string{"record"})

	TransportEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatflow",
		Subsystem: "transport",
		Name:      "events_total",
		Help:      "Realtime events by direction and outcome.",
	}, []string{"direction", "event", "outcome"})

	RelayClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatflow",
		Subsystem: "relay",
		Name:      "clients",
		Help:      "Clients currently connected to the relay.",
	})
)

func init() {
	Registry.MustRegister(
		StoreReads,
		StoreWrites,
		StoreCorrupt,
		TransportEvents,
		RelayClients,
		prometheus.NewGoCollector(),
	)
}

// Handler exposes Registry in the prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
