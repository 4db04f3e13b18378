// Package metrics exports object-service operation counts and latencies to
// Prometheus.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

const namespace = "cmis"

// Result label values besides the error kinds.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder counts service operations by repository, operation and result,
// and observes their durations. It implements service.Observer.
type Recorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewRecorder creates a recorder and registers its collectors with reg. A nil
// reg uses prometheus.DefaultRegisterer.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Object service operations by repository, operation and result.",
		}, []string{"repository", "operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of object service operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"repository", "operation"}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.durations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveOperation records one finished operation.
func (r *Recorder) ObserveOperation(repositoryID, op string, d time.Duration, err error) {
	if op == "" {
		return
	}
	r.operations.WithLabelValues(repositoryID, op, Result(err)).Inc()
	r.durations.WithLabelValues(repositoryID, op).Observe(d.Seconds())
}

// Result maps an operation error to its result label: "success", the error
// kind in snake case, or "error" for errors without a kind.
func Result(err error) string {
	if err == nil {
		return ResultSuccess
	}
	kind := cmis.Kind(err)
	if kind == nil {
		return ResultError
	}
	return strings.ReplaceAll(kind.Error(), " ", "_")
}
