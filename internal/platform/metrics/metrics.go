package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics holds the Prometheus counters for the scan pipeline. A nil
// receiver is a no-op so tests can pass nil instead of a registry.
type PipelineMetrics struct {
	Registry                *prometheus.Registry
	ListingsClassifiedTotal *prometheus.CounterVec
	ListingFailuresTotal    prometheus.Counter
	AlertsDispatchedTotal   *prometheus.CounterVec
	BudgetDeniedTotal       *prometheus.CounterVec
	ScanJobsEnqueuedTotal   prometheus.Counter
}

func NewPipelineMetrics(serviceName string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	listingsClassifiedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listings_classified_total",
		Help:      "Total number of listings classified, by outcome.",
	}, []string{"outcome"})
	listingFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listing_failures_total",
		Help:      "Total number of listings skipped due to classification failures.",
	})
	alertsDispatchedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "alerts_dispatched_total",
		Help:      "Total number of alert deliveries, by channel and status.",
	}, []string{"channel", "status"})
	budgetDeniedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "budget_denied_total",
		Help:      "Total number of budget limiter denials, by kind.",
	}, []string{"kind"})
	scanJobsEnqueuedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "scan_jobs_enqueued_total",
		Help:      "Total number of scan jobs enqueued by the scheduler.",
	})

	registry.MustRegister(
		listingsClassifiedTotal,
		listingFailuresTotal,
		alertsDispatchedTotal,
		budgetDeniedTotal,
		scanJobsEnqueuedTotal,
		prometheus.NewGoCollector(),
	)

	return &PipelineMetrics{
		Registry:                registry,
		ListingsClassifiedTotal: listingsClassifiedTotal,
		ListingFailuresTotal:    listingFailuresTotal,
		AlertsDispatchedTotal:   alertsDispatchedTotal,
		BudgetDeniedTotal:       budgetDeniedTotal,
		ScanJobsEnqueuedTotal:   scanJobsEnqueuedTotal,
	}
}

func (m *PipelineMetrics) ObserveListingClassified(event *entity.ChangeEvent) {
	if m == nil {
		return
	}
	outcome := "unchanged"
	if event != nil {
		outcome = string(event.Kind)
	}
	m.ListingsClassifiedTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveListingFailed() {
	if m == nil {
		return
	}
	m.ListingFailuresTotal.Inc()
}

func (m *PipelineMetrics) ObserveDispatch(channel entity.ChannelType, status entity.DeliveryStatus) {
	if m == nil {
		return
	}
	m.AlertsDispatchedTotal.WithLabelValues(string(channel), string(status)).Inc()
}

func (m *PipelineMetrics) ObserveBudgetDenied(kind string) {
	if m == nil {
		return
	}
	m.BudgetDeniedTotal.WithLabelValues(kind).Inc()
}

func (m *PipelineMetrics) ObserveScanEnqueued() {
	if m == nil {
		return
	}
	m.ScanJobsEnqueuedTotal.Inc()
}

// NewServer builds the HTTP server exposing /metrics and /healthz.
func NewServer(port string, m *PipelineMetrics, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Infof("Metrics server listening on :%s", port)
	return srv
}

// Shutdown stops a metrics server started with NewServer.
func Shutdown(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
