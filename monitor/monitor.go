// monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlineSessions   prometheus.Gauge
	ActiveRooms      prometheus.Gauge
	SeatedPlayers    prometheus.Gauge
	MessagesReceived prometheus.Counter
	RateLimited      prometheus.Counter
	MessageLatency   prometheus.Histogram
	GamesStarted     prometheus.Counter
	GamesFinished    prometheus.Counter
	DiceRolls        *prometheus.CounterVec
	Shots            *prometheus.CounterVec
	Rejected         *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		OnlineSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_sessions",
			Help:      "Number of open connections",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of live rooms",
		}),
		SeatedPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seated_players",
			Help:      "Number of connections seated in a room",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_rate_limited_total",
			Help:      "Messages dropped by per-connection flood control",
		}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games moved from lobby to play",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that produced a winner",
		}),
		DiceRolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dice_rolls_total",
			Help:      "Dice rolls by outcome",
		}, []string{"result"}),
		Shots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shots_total",
			Help:      "Successful shots, split by whether the target was eliminated",
		}, []string{"eliminated"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_actions_total",
			Help:      "Rejected actions by error kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.OnlineSessions,
		m.ActiveRooms,
		m.SeatedPlayers,
		m.MessagesReceived,
		m.RateLimited,
		m.MessageLatency,
		m.GamesStarted,
		m.GamesFinished,
		m.DiceRolls,
		m.Shots,
		m.Rejected,
	}
}

type Monitor struct {
	metrics   *Metrics
	gatherer  prometheus.Gatherer
	startTime time.Time
}

// NewMonitor registers the game metrics on reg. A nil reg uses the process-wide
// default registry.
func NewMonitor(namespace string, reg *prometheus.Registry) *Monitor {
	m := &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	m.gatherer = prometheus.DefaultGatherer
	if reg != nil {
		registerer = reg
		m.gatherer = reg
	}

	uptime := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Seconds since the server started",
	}, func() float64 {
		return time.Since(m.startTime).Seconds()
	})
	registerer.MustRegister(append(m.metrics.collectors(), uptime)...)
	return m
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// Handler serves the registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Monitor) SessionOpened() {
	m.metrics.OnlineSessions.Inc()
}

func (m *Monitor) SessionClosed() {
	m.metrics.OnlineSessions.Dec()
}

// SetRoomStats is refreshed periodically from the room manager.
func (m *Monitor) SetRoomStats(rooms, players int) {
	m.metrics.ActiveRooms.Set(float64(rooms))
	m.metrics.SeatedPlayers.Set(float64(players))
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
}

func (m *Monitor) IncRateLimited() {
	m.metrics.RateLimited.Inc()
}

func (m *Monitor) ObserveMessageLatency(duration time.Duration) {
	m.metrics.MessageLatency.Observe(duration.Seconds())
}

// --- services.Observer ---

func (m *Monitor) GameStarted() {
	m.metrics.GamesStarted.Inc()
}

func (m *Monitor) GameFinished() {
	m.metrics.GamesFinished.Inc()
}

func (m *Monitor) DiceRolled(success bool) {
	result := "advanced"
	if !success {
		result = "blocked"
	}
	m.metrics.DiceRolls.WithLabelValues(result).Inc()
}

func (m *Monitor) PlayerShot(eliminated bool) {
	label := "false"
	if eliminated {
		label = "true"
	}
	m.metrics.Shots.WithLabelValues(label).Inc()
}

func (m *Monitor) ActionRejected(kind string) {
	m.metrics.Rejected.WithLabelValues(kind).Inc()
}
