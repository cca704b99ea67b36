package pool

import (
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Sink is the metrics surface a pool reports through. The coordinator and
// evictor call it on the borrow/return/destroy/evict hot paths, mirroring
// the package-level Gauge/Count/Timing shape used across the retrieval
// pack's pkg/metric packages, but as an interface so a nil/no-op
// implementation never becomes load-bearing for correctness.
type Sink interface {
	Gauge(name string, value float64, tags []string)
	Count(name string, value int64, tags []string)
	Timing(name string, value time.Duration, tags []string)
}

type noopSink struct{}

func (noopSink) Gauge(string, float64, []string)        {}
func (noopSink) Count(string, int64, []string)          {}
func (noopSink) Timing(string, time.Duration, []string) {}

// statsdSink wraps a statsd.Client, appending a fixed set of tags to every
// call — the same service/env-tag pattern as go-sdk/pkg/metric/metric.go,
// minus the package-level singleton: each pool owns (or shares) its own
// sink instance rather than reaching for a global client.
type statsdSink struct {
	client *statsd.Client
	tags   []string
}

// NewStatsdSink dials a statsd client at addr and returns a Sink that tags
// every metric with tags in addition to whatever the caller passes.
func NewStatsdSink(addr string, tags []string, opts ...statsd.Option) (Sink, error) {
	client, err := statsd.New(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &statsdSink{client: client, tags: tags}, nil
}

func (s *statsdSink) merge(tags []string) []string {
	if len(tags) == 0 {
		return s.tags
	}
	return append(append([]string{}, s.tags...), tags...)
}

func (s *statsdSink) Gauge(name string, value float64, tags []string) {
	if err := s.client.Gauge(name, value, s.merge(tags), 1); err != nil {
		logger.Warn().Err(err).Str("metric", name).Msg("statsd gauge failed")
	}
}

func (s *statsdSink) Count(name string, value int64, tags []string) {
	if err := s.client.Count(name, value, s.merge(tags), 1); err != nil {
		logger.Warn().Err(err).Str("metric", name).Msg("statsd count failed")
	}
}

func (s *statsdSink) Timing(name string, value time.Duration, tags []string) {
	if err := s.client.Timing(name, value, s.merge(tags), 1); err != nil {
		logger.Warn().Err(err).Str("metric", name).Msg("statsd timing failed")
	}
}
