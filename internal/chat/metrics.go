package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shroud_connected_sessions",
		Help: "Number of currently connected sessions",
	})

	OpenRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shroud_open_rooms",
		Help: "Number of currently open rooms",
	})

	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shroud_requests_total",
		Help: "Total requests processed by method",
	}, []string{"method"})

	MessagesBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shroud_messages_broadcast_total",
		Help: "Total message lines broadcast to rooms",
	})

	HandshakeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shroud_handshake_failures_total",
		Help: "Total failed join handshakes",
	})
)

func init() {
	prometheus.MustRegister(ConnectedSessions)
	prometheus.MustRegister(OpenRooms)
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(MessagesBroadcast)
	prometheus.MustRegister(HandshakeFailures)
}
