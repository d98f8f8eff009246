package metrics

import (
	"forest_monitor/internal/models"
	"forest_monitor/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder publishes ingestion and alerting metrics.
type Recorder struct {
	updates      *prometheus.CounterVec
	admitted     prometheus.Counter
	historyLen   prometheus.Gauge
	warnings     prometheus.Gauge
	riskLevel    prometheus.Gauge
	channelValue *prometheus.GaugeVec
	alerts       *prometheus.CounterVec
}

var _ service.Observer = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forest_updates_total",
			Help: "Sensor updates received, by result.",
		}, []string{"result"}),
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forest_history_admitted_total",
			Help: "Snapshots admitted to the history buffer.",
		}),
		historyLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forest_history_length",
			Help: "Current number of snapshots in the history buffer.",
		}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forest_warning_count",
			Help: "Aggregate warning count after the last update.",
		}),
		riskLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forest_fire_risk_level",
			Help: "Fire risk level: 0 unknown, 1 safe, 2 low, 3 medium, 4 high.",
		}),
		channelValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forest_channel_value",
			Help: "Latest accepted value per channel; fire probability is -1 when unavailable.",
		}, []string{"channel"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forest_alerts_total",
			Help: "Operator alerts, by outcome.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{r.updates, r.admitted, r.historyLen, r.warnings, r.riskLevel, r.channelValue, r.alerts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) UpdateRejected(result string) {
	r.updates.WithLabelValues(result).Inc()
}

func (r *Recorder) UpdateApplied(ack models.UpdateAck, value float64) {
	r.updates.WithLabelValues(service.ResultApplied).Inc()
	if ack.Admitted {
		r.admitted.Inc()
	}
	r.historyLen.Set(float64(ack.HistoryLen))
	r.warnings.Set(float64(ack.WarningCount))
	r.riskLevel.Set(float64(ack.Risk))
	r.channelValue.WithLabelValues(string(ack.Channel)).Set(value)
}

// AlertOutcome counts an alert as sent, suppressed, dropped or failed.
func (r *Recorder) AlertOutcome(outcome string) {
	r.alerts.WithLabelValues(outcome).Inc()
}
