package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	transforms        *prom.CounterVec
	transformDuration *prom.HistogramVec
	indexFiles        prom.Gauge
	sweepMerged       prom.Counter
	sweepDuration     prom.Histogram
}

// NewPrometheusRecorder constructs and registers the imgstack metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		transforms: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "imgstack",
			Name:      "transforms_total",
			Help:      "Transform outcomes by operation and result",
		}, []string{"op", "result"}),
		transformDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "imgstack",
			Name:      "transform_duration_seconds",
			Help:      "Duration of individual transforms including the vault write",
			Buckets:   prom.DefBuckets,
		}, []string{"op"}),
		indexFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: "imgstack",
			Name:      "index_files",
			Help:      "Notes currently tracked by the vault index",
		}),
		sweepMerged: prom.NewCounter(prom.CounterOpts{
			Namespace: "imgstack",
			Name:      "sweep_blocks_merged_total",
			Help:      "Blocks merged by the periodic normalize sweep",
		}),
		sweepDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "imgstack",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of normalize sweep runs",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.transforms, pr.transformDuration, pr.indexFiles, pr.sweepMerged, pr.sweepDuration)
	return pr
}

func (p *PrometheusRecorder) ObserveTransform(op, result string, d time.Duration) {
	p.transforms.WithLabelValues(op, result).Inc()
	p.transformDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetIndexSize(files int) {
	p.indexFiles.Set(float64(files))
}

func (p *PrometheusRecorder) ObserveSweep(blocksMerged int, d time.Duration) {
	p.sweepMerged.Add(float64(blocksMerged))
	p.sweepDuration.Observe(d.Seconds())
}
