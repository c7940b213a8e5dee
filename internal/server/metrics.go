package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus instruments for the game servers.
type Metrics struct {
	registry *prometheus.Registry

	transactions *prometheus.CounterVec
	undos        *prometheus.CounterVec
	redos        *prometheus.CounterVec
	deliveries   *prometheus.CounterVec
	connections  prometheus.Gauge
}

// NewMetrics creates the instruments on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "monopoly_transactions_total",
			Help: "Transactions submitted, by game and outcome.",
		}, []string{"game", "outcome"}),
		undos: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "monopoly_undos_total",
			Help: "Successful undo operations, by game.",
		}, []string{"game"}),
		redos: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "monopoly_redos_total",
			Help: "Successful redo operations, by game.",
		}, []string{"game"}),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "monopoly_events_delivered_total",
			Help: "Events delivered to clients, by game and delivery mode.",
		}, []string{"game", "mode"}),
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "monopoly_connected_clients",
			Help: "Currently connected websocket clients.",
		}),
	}
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTransaction(gameName string, ok bool) {
	outcome := "rejected"
	if ok {
		outcome = "applied"
	}
	m.transactions.WithLabelValues(gameName, outcome).Inc()
}

func (m *Metrics) ObserveUndo(gameName string) {
	m.undos.WithLabelValues(gameName).Inc()
}

func (m *Metrics) ObserveRedo(gameName string) {
	m.redos.WithLabelValues(gameName).Inc()
}

func (m *Metrics) ObserveDelivery(gameName, mode string) {
	m.deliveries.WithLabelValues(gameName, mode).Inc()
}

func (m *Metrics) ClientConnected()    { m.connections.Inc() }
func (m *Metrics) ClientDisconnected() { m.connections.Dec() }
