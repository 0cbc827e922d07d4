// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager exposes Prometheus metrics for the crawler.
type MetricsManager struct {
	pagesScraped     *prometheus.CounterVec
	domFallbacks     *prometheus.CounterVec
	sourcesLocated   *prometheus.CounterVec
	downloadsTotal   *prometheus.CounterVec
	downloadRetries  prometheus.Counter
	downloadDuration *prometheus.HistogramVec
	assetsWritten    *prometheus.CounterVec
	leavesPruned     prometheus.Counter
}

// NewMetricsManager registers the crawler metrics on a fresh registry
// and returns the manager together with the registry's handler.
func NewMetricsManager(namespace string) (*MetricsManager, http.Handler) {
	if namespace == "" {
		namespace = "trailerscrapexter"
	}
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &MetricsManager{
		pagesScraped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_scraped_total",
			Help:      "Pages fetched and parsed, by kind (video, listing)",
		}, []string{"kind"}),
		domFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dom_fallbacks_total",
			Help:      "Metadata fields resolved by the heuristic DOM layer instead of structured data",
		}, []string{"field"}),
		sourcesLocated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_sources_located_total",
			Help:      "Media sources located, by strategy origin",
		}, []string{"origin"}),
		downloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Download attempts by asset type and outcome",
		}, []string{"asset", "outcome"}),
		downloadRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_retries_total",
			Help:      "Retry attempts across all external tool invocations",
		}),
		downloadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Wall time of download attempts by asset type",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"asset"}),
		assetsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_written_total",
			Help:      "Files persisted under the download tree, by type",
		}, []string{"type"}),
		leavesPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_leaves_pruned_total",
			Help:      "Incomplete video directories removed by the auditor",
		}),
	}

	return m, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func (m *MetricsManager) PageScraped(kind string) {
	m.pagesScraped.WithLabelValues(kind).Inc()
}

func (m *MetricsManager) DOMFallback(field string) {
	m.domFallbacks.WithLabelValues(field).Inc()
}

func (m *MetricsManager) SourceLocated(origin string) {
	m.sourcesLocated.WithLabelValues(origin).Inc()
}

func (m *MetricsManager) DownloadOutcome(asset string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.downloadsTotal.WithLabelValues(asset, outcome).Inc()
}

func (m *MetricsManager) DownloadRetry() {
	m.downloadRetries.Inc()
}

func (m *MetricsManager) ObserveDownloadDuration(asset string, seconds float64) {
	m.downloadDuration.WithLabelValues(asset).Observe(seconds)
}

func (m *MetricsManager) AssetWritten(assetType string) {
	m.assetsWritten.WithLabelValues(assetType).Inc()
}

func (m *MetricsManager) LeavesPruned(n int) {
	m.leavesPruned.Add(float64(n))
}
