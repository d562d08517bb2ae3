// Package metrics records deploy step and transaction metrics and renders the gas report.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the deploy collectors on their own registry, so a run can push exactly
// its own series to a Pushgateway.
type Metrics struct {
	registry *prometheus.Registry

	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	txTotal      *prometheus.CounterVec
	gasUsed      *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

// New creates the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lottery_deploy_steps_total",
				Help: "Total number of deploy steps run",
			},
			[]string{"network", "step", "status"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lottery_deploy_step_duration_seconds",
				Help:    "Deploy step duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"network", "step"},
		),
		txTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lottery_transactions_total",
				Help: "Total number of mined transactions",
			},
			[]string{"contract", "method", "status"},
		),
		gasUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lottery_gas_used_total",
				Help: "Total gas used by mined transactions",
			},
			[]string{"contract", "method"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lottery_deploy_last_run_timestamp_seconds",
				Help: "Unix time of the last finished deploy run",
			},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStep records one deploy step outcome.
func (m *Metrics) ObserveStep(network, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.stepsTotal.WithLabelValues(network, step, status).Inc()
	m.stepDuration.WithLabelValues(network, step).Observe(d.Seconds())
}

// RunFinished stamps the last run time.
func (m *Metrics) RunFinished(at time.Time) {
	m.lastRun.Set(float64(at.Unix()))
}

// ObserveReceipt implements chain.ReceiptObserver.
func (m *Metrics) ObserveReceipt(_ context.Context, label string, receipt *types.Receipt) {
	contract, method := SplitLabel(label)
	status := "success"
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = "reverted"
	}
	m.txTotal.WithLabelValues(contract, method, status).Inc()
	m.gasUsed.WithLabelValues(contract, method).Add(float64(receipt.GasUsed))
}

// Push sends the collected series to a Prometheus Pushgateway.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// SplitLabel splits "Contract.method" into its parts. Labels without a dot are
// treated as a method on an unnamed contract.
func SplitLabel(label string) (contract, method string) {
	if i := strings.LastIndex(label, "."); i >= 0 {
		return label[:i], label[i+1:]
	}
	return "", label
}
