package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for storage operations.
type Observer interface {
	RecordList(duration time.Duration, err error)
	RecordPut(duration time.Duration, sizeBytes int, err error)
	RecordPresign(duration time.Duration, err error)
}

// PrometheusObserver exports storage metrics to Prometheus.
type PrometheusObserver struct {
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	uploadBytes prometheus.Counter
}

// NewPrometheusObserver registers list/put/presign metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "media_storage"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of object storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed object storage operations.",
		}, []string{"operation"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size written to object storage.",
		}),
	}
	for _, c := range []prometheus.Collector{o.duration, o.errors, o.uploadBytes} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register storage metric: %w", err)
		}
	}
	return o, nil
}

func (o *PrometheusObserver) RecordList(duration time.Duration, err error) {
	o.record("list", duration, err)
}

// RecordPut tracks write latency, failures and bytes written.
func (o *PrometheusObserver) RecordPut(duration time.Duration, sizeBytes int, err error) {
	o.record("put", duration, err)
	if err == nil {
		o.uploadBytes.Add(float64(sizeBytes))
	}
}

func (o *PrometheusObserver) RecordPresign(duration time.Duration, err error) {
	o.record("presign", duration, err)
}

func (o *PrometheusObserver) record(op string, duration time.Duration, err error) {
	o.duration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues(op).Inc()
	}
}

// instrumented decorates a Storage with an Observer.
type instrumented struct {
	next     Storage
	observer Observer
}

// WithObserver wraps s so every call is reported to o.
func WithObserver(s Storage, o Observer) Storage {
	if o == nil {
		return s
	}
	return &instrumented{next: s, observer: o}
}

func (s *instrumented) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	start := time.Now()
	objects, err := s.next.List(ctx, prefix, limit)
	s.observer.RecordList(time.Since(start), err)
	return objects, err
}

func (s *instrumented) Put(ctx context.Context, key string, data []byte, contentType string) error {
	start := time.Now()
	err := s.next.Put(ctx, key, data, contentType)
	s.observer.RecordPut(time.Since(start), len(data), err)
	return err
}

func (s *instrumented) PresignGet(ctx context.Context, key string, ttl time.Duration) (*url.URL, error) {
	start := time.Now()
	u, err := s.next.PresignGet(ctx, key, ttl)
	s.observer.RecordPresign(time.Since(start), err)
	return u, err
}
