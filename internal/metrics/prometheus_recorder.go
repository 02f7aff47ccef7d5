package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"devboot/internal/domain"
)

// PrometheusRecorder collects run metrics in a private registry and writes
// them in the node_exporter textfile format.
type PrometheusRecorder struct {
	reg           *prom.Registry
	stageDuration *prom.HistogramVec
	strategies    *prom.CounterVec
	installs      *prom.CounterVec
	outcomes      *prom.CounterVec
	lastRun       *prom.GaugeVec
}

// NewPrometheusRecorder registers the devboot metrics on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "devboot",
			Name:      "stage_duration_seconds",
			Help:      "Duration of provisioning stages",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"module", "stage"}),
		strategies: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "devboot",
			Name:      "strategy_total",
			Help:      "Chosen execution strategies",
		}, []string{"module", "strategy"}),
		installs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "devboot",
			Name:      "install_results_total",
			Help:      "Extension and plugin install results",
		}, []string{"module", "result"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "devboot",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by module",
		}, []string{"module", "outcome"}),
		lastRun: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "devboot",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run of a module finished",
		}, []string{"module"}),
	}
	reg.MustRegister(pr.stageDuration, pr.strategies, pr.installs, pr.outcomes, pr.lastRun)
	return pr
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStage(module string, stage domain.Stage, d time.Duration) {
	p.stageDuration.WithLabelValues(module, string(stage)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) RecordStrategy(module string, kind domain.StrategyKind) {
	p.strategies.WithLabelValues(module, kind.String()).Inc()
}

func (p *PrometheusRecorder) RecordInstall(module string, ok bool) {
	res := "failed"
	if ok {
		res = "success"
	}
	p.installs.WithLabelValues(module, res).Inc()
}

func (p *PrometheusRecorder) RecordOutcome(module, result string) {
	p.outcomes.WithLabelValues(module, result).Inc()
	p.lastRun.WithLabelValues(module).SetToCurrentTime()
}

// WriteTextfile writes the collected metrics to path atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
