package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"camwall/internal/core/domain"
)

// feedStates is the full set of states the per-position gauge vec reports.
// Exactly one of them is 1 for a position at any moment.
var feedStates = []domain.FeedState{
	domain.FeedDisabled,
	domain.FeedConnecting,
	domain.FeedPlaying,
	domain.FeedUnstable,
	domain.FeedPaused,
	domain.FeedFailed,
}

type PrometheusCollector struct {
	// Gauges
	feedState        *prometheus.GaugeVec
	websocketClients prometheus.Gauge

	// Counters
	dropsTotal           *prometheus.CounterVec
	restartsTotal        *prometheus.CounterVec
	qualitySwitchesTotal *prometheus.CounterVec
	ptzCommandsTotal     *prometheus.CounterVec

	// Histograms
	probeLatency *prometheus.HistogramVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		feedState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "camwall_feed_state",
			Help: "Current feed state per position (1 for the active state)",
		}, []string{"position", "state"}),

		websocketClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "camwall_websocket_clients",
			Help: "Number of connected event stream clients",
		}),

		dropsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "camwall_feed_drops_total",
			Help: "Total detected packet drops per position",
		}, []string{"position"}),

		restartsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "camwall_feed_restarts_total",
			Help: "Total feed session restarts per position",
		}, []string{"position"}),

		qualitySwitchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "camwall_feed_quality_switches_total",
			Help: "Total main-to-sub quality degradations per position",
		}, []string{"position"}),

		ptzCommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "camwall_ptz_commands_total",
			Help: "Total PTZ commands issued per position and command",
		}, []string{"position", "command"}),

		probeLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "camwall_probe_latency_seconds",
			Help:    "TCP probe latency to the camera RTSP port",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"position"}),
	}
}

func (p *PrometheusCollector) SetFeedState(pos domain.Position, state domain.FeedState) {
	label := strconv.Itoa(int(pos))
	for _, s := range feedStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		p.feedState.WithLabelValues(label, string(s)).Set(v)
	}
}

func (p *PrometheusCollector) RecordDrop(pos domain.Position) {
	p.dropsTotal.WithLabelValues(strconv.Itoa(int(pos))).Inc()
}

func (p *PrometheusCollector) RecordRestart(pos domain.Position) {
	p.restartsTotal.WithLabelValues(strconv.Itoa(int(pos))).Inc()
}

func (p *PrometheusCollector) RecordQualitySwitch(pos domain.Position) {
	p.qualitySwitchesTotal.WithLabelValues(strconv.Itoa(int(pos))).Inc()
}

func (p *PrometheusCollector) RecordProbeLatency(pos domain.Position, latency time.Duration) {
	p.probeLatency.WithLabelValues(strconv.Itoa(int(pos))).Observe(latency.Seconds())
}

func (p *PrometheusCollector) RecordPTZCommand(pos domain.Position, command string) {
	p.ptzCommandsTotal.WithLabelValues(strconv.Itoa(int(pos)), command).Inc()
}

func (p *PrometheusCollector) ClientConnected() {
	p.websocketClients.Inc()
}

func (p *PrometheusCollector) ClientDisconnected() {
	p.websocketClients.Dec()
}
