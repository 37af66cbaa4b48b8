package statsd

import (
	"maps"
	"sync"
	"time"
)

// Metric is one observation captured by a Recorder.
type Metric struct {
	Kind  string
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder is an in-memory Sink used by tests and the admin CLI dry runs.
type Recorder struct {
	mu      sync.Mutex
	metrics []Metric
}

var _ Sink = (*Recorder)(nil)

func (r *Recorder) record(kind, name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, Metric{Kind: kind, Name: name, Value: value, Tags: maps.Clone(tags)})
}

// Count implements Sink.
func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.record("c", name, float64(value), tags)
}

// Gauge implements Sink.
func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.record("g", name, value, tags)
}

// Timing implements Sink.
func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.record("ms", name, float64(value)/float64(time.Millisecond), tags)
}

// Metrics returns a copy of everything recorded so far.
func (r *Recorder) Metrics() []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Metric, len(r.metrics))
	copy(out, r.metrics)
	return out
}

// Named returns the recorded metrics with the given name.
func (r *Recorder) Named(name string) []Metric {
	var out []Metric
	for _, m := range r.Metrics() {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Sum adds up the values of every counter with the given name whose tags
// include all of match.
func (r *Recorder) Sum(name string, match map[string]string) float64 {
	var total float64
	for _, m := range r.Named(name) {
		if m.Kind != "c" {
			continue
		}
		ok := true
		for k, v := range match {
			if m.Tags[k] != v {
				ok = false
				break
			}
		}
		if ok {
			total += m.Value
		}
	}
	return total
}
