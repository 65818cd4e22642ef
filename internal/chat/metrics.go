package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_users",
		Help: "Number of currently registered users",
	})

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_commands_total",
		Help: "Total commands processed by the router, by type",
	}, []string{"type"})

	CommandProcessingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_command_processing_seconds",
		Help:    "Time the router spends processing each command type",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	OutboundDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_outbound_dropped_total",
		Help: "Lines evicted from full per-session outbound queues",
	})

	HistoryEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_history_entries",
		Help: "Number of messages currently retained in the history ring",
	})
)

func init() {
	prometheus.MustRegister(ConnectedUsers)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(CommandProcessingDuration)
	prometheus.MustRegister(OutboundDropped)
	prometheus.MustRegister(HistoryEntries)
}
