package handlers

import (
	"bytes"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"

	"hoslog/internal/logbook"
)

var (
	syncEventsTotal     *prometheus.CounterVec
	syncBatchSize       prometheus.Histogram
	certificationsTotal prometheus.Counter
)

func InitPrometheusMetrics() {
	syncEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hoslog",
			Name:      "sync_events_total",
			Help:      "Duty events processed by sync batches, by outcome.",
		},
		[]string{"outcome"},
	)
	syncBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hoslog",
			Name:      "sync_batch_size",
			Help:      "Number of events per sync batch.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
	certificationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hoslog",
			Name:      "certifications_total",
			Help:      "Daily log certifications performed.",
		},
	)
	prometheus.MustRegister(syncEventsTotal, syncBatchSize, certificationsTotal)
}

// observeDroppedEvents records validation drops for batches that never
// completed, so the dropped outcome stays accurate on failures.
func observeDroppedEvents(n int) {
	if n > 0 {
		syncEventsTotal.WithLabelValues("dropped").Add(float64(n))
	}
}

func observeSyncBatch(res logbook.IngestResult) {
	syncEventsTotal.WithLabelValues("inserted").Add(float64(res.Inserted))
	syncEventsTotal.WithLabelValues("duplicate").Add(float64(res.Duplicates))
	syncEventsTotal.WithLabelValues("dropped").Add(float64(res.Dropped))
	syncBatchSize.Observe(float64(res.Inserted + res.Duplicates + res.Dropped))
}

// MetricsHandler serves this service's own metric families in Prometheus
// text exposition format. Only the hoslog namespace is exposed; Go runtime
// and process collectors stay internal.
func MetricsHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		metricFamilies, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to gather metrics")
			return
		}

		filtered := make([]*dto.MetricFamily, 0, len(metricFamilies))
		for _, mf := range metricFamilies {
			if strings.HasPrefix(mf.GetName(), "hoslog_") {
				filtered = append(filtered, mf)
			}
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
		for _, mf := range filtered {
			if err := encoder.Encode(mf); err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode metrics")
				return
			}
		}

		ctx.SetContentType(string(expfmt.NewFormat(expfmt.TypeTextPlain)))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}
