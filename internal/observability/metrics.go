package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpDurationHistogram  *prometheus.HistogramVec
	ledgerImbalanceCounter *prometheus.CounterVec
	settlementCounter      *prometheus.CounterVec
	versionConflictCounter *prometheus.CounterVec
	passwordLockoutCounter prometheus.Counter
	workerRunCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerImbalanceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_imbalance_total",
			Help: "Number of times an account fund diverged from its ledger",
		}, []string{"account"})

		settlementCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trade_settlements_total",
			Help: "Trade settlement outcomes",
		}, []string{"operation", "result"})

		versionConflictCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "version_conflicts_total",
			Help: "Optimistic concurrency conflicts by entity",
		}, []string{"entity"})

		passwordLockoutCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "password_lockouts_total",
			Help: "Accounts frozen after repeated wrong trade passwords",
		})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerImbalanceCounter,
			settlementCounter,
			versionConflictCounter,
			passwordLockoutCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerImbalance(account string) {
	if ledgerImbalanceCounter == nil {
		return
	}
	ledgerImbalanceCounter.WithLabelValues(account).Inc()
}

func IncrementSettlement(operation, result string) {
	if settlementCounter == nil {
		return
	}
	settlementCounter.WithLabelValues(operation, result).Inc()
}

func IncrementVersionConflict(entity string) {
	if versionConflictCounter == nil {
		return
	}
	versionConflictCounter.WithLabelValues(entity).Inc()
}

func IncrementPasswordLockout() {
	if passwordLockoutCounter == nil {
		return
	}
	passwordLockoutCounter.Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
