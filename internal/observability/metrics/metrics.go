package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "platform_"

	resultSuccess = "success"
	resultError   = "error"
	resultBlocked = "blocked"
)

var (
	registerOnce sync.Once

	orderSubmitTotal   *prometheus.CounterVec
	orderSubmitLatency *prometheus.HistogramVec

	lineItemGenerateTotal   *prometheus.CounterVec
	lineItemGenerateLatency *prometheus.HistogramVec

	policyGateTotal *prometheus.CounterVec

	approvalResolveTotal *prometheus.CounterVec

	receiptExportTotal   *prometheus.CounterVec
	receiptExportLatency *prometheus.HistogramVec

	renewalRunTotal   *prometheus.CounterVec
	renewalRunLatency *prometheus.HistogramVec

	notifyDeliveryTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		orderSubmitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "order_submit_total",
				Help: "Total order submissions by result",
			},
			[]string{"result"},
		)
		orderSubmitLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "order_submit_latency_seconds",
				Help:    "Order submission latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		lineItemGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "line_item_generate_total",
				Help: "Total line item generation runs by result",
			},
			[]string{"result"},
		)
		lineItemGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "line_item_generate_latency_seconds",
				Help:    "Line item generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		policyGateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "policy_gate_total",
				Help: "Total policy gate evaluations by outcome",
			},
			[]string{"outcome"},
		)

		approvalResolveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "approval_resolve_total",
				Help: "Total approval resolutions by decision",
			},
			[]string{"decision"},
		)

		receiptExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "receipt_export_total",
				Help: "Total receipt exports by format and result",
			},
			[]string{"format", "result"},
		)
		receiptExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "receipt_export_latency_seconds",
				Help:    "Receipt export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		renewalRunTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "renewal_run_total",
				Help: "Total auto-renewal scheduler runs by result",
			},
			[]string{"result"},
		)
		renewalRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "renewal_run_latency_seconds",
				Help:    "Auto-renewal scheduler run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		notifyDeliveryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notify_delivery_total",
				Help: "Total outbound notifications by kind and result",
			},
			[]string{"kind", "result"},
		)

		prometheus.MustRegister(
			orderSubmitTotal,
			orderSubmitLatency,
			lineItemGenerateTotal,
			lineItemGenerateLatency,
			policyGateTotal,
			approvalResolveTotal,
			receiptExportTotal,
			receiptExportLatency,
			renewalRunTotal,
			renewalRunLatency,
			notifyDeliveryTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveOrderSubmit records submission latency and result.
func ObserveOrderSubmit(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if orderSubmitTotal != nil {
		orderSubmitTotal.WithLabelValues(result).Inc()
	}
	if orderSubmitLatency != nil {
		orderSubmitLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveLineItemGenerate records generation latency and result.
func ObserveLineItemGenerate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if lineItemGenerateTotal != nil {
		lineItemGenerateTotal.WithLabelValues(result).Inc()
	}
	if lineItemGenerateLatency != nil {
		lineItemGenerateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncPolicyGate increments the gate outcome counter.
func IncPolicyGate(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if policyGateTotal != nil {
		policyGateTotal.WithLabelValues(outcome).Inc()
	}
}

// IncApprovalResolve increments the approval decision counter.
func IncApprovalResolve(decision string) {
	if decision == "" {
		decision = "unknown"
	}
	if approvalResolveTotal != nil {
		approvalResolveTotal.WithLabelValues(decision).Inc()
	}
}

// ObserveReceiptExport records export latency and result.
func ObserveReceiptExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if receiptExportTotal != nil {
		receiptExportTotal.WithLabelValues(format, result).Inc()
	}
	if receiptExportLatency != nil {
		receiptExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveRenewalRun records renewal scheduler run latency and result.
func ObserveRenewalRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if renewalRunTotal != nil {
		renewalRunTotal.WithLabelValues(result).Inc()
	}
	if renewalRunLatency != nil {
		renewalRunLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncNotifyDelivery increments the outbound notification counter.
func IncNotifyDelivery(kind, result string) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if notifyDeliveryTotal != nil {
		notifyDeliveryTotal.WithLabelValues(kind, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultBlocked = resultBlocked

	GateOutcomePassed   = "passed"
	GateOutcomeHeld     = "held"
	GateOutcomeFailOpen = "fail_open"
)
