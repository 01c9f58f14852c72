// Package metrics exposes GameManager's internal counters and gauges on
// the same HTTP mux as the health check (cmd/gamemanager/http.go), filling
// the observability-layer home the retrieved corpus's richer services
// (flow-go, the network service layer) give to prometheus/client_golang.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector GameManager registers.
type Metrics struct {
	ChannelsOpen     prometheus.Gauge
	EnginesCrashed   prometheus.Counter
	LobbyConnected   prometheus.Gauge
	IPCEventsTotal   prometheus.Counter
	ToolCallsTotal   *prometheus.CounterVec
	PushEventsTotal  prometheus.Counter
}

// New constructs and registers every collector against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChannelsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gamemanager_channels_open",
			Help: "Number of currently tracked engine channels.",
		}),
		EnginesCrashed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamemanager_engines_crashed_total",
			Help: "Number of engine instances that exited with a non-zero status.",
		}),
		LobbyConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gamemanager_lobby_connected",
			Help: "1 if the lobby TCP session is connected, 0 otherwise.",
		}),
		IPCEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamemanager_ipc_events_total",
			Help: "Number of engine IPC events forwarded to the agent.",
		}),
		ToolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamemanager_tool_calls_total",
			Help: "Number of tools/call invocations, by tool name.",
		}, []string{"tool"}),
		PushEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamemanager_push_events_total",
			Help: "Number of pushEvent notifications sent to the agent.",
		}),
	}

	reg.MustRegister(m.ChannelsOpen, m.EnginesCrashed, m.LobbyConnected, m.IPCEventsTotal, m.ToolCallsTotal, m.PushEventsTotal)
	return m
}
