package observability

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics records counters, gauges and timings.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag represents a key-value pair for metric labeling.
type Tag struct {
	Key   string
	Value string
}

// T creates a new Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// TimingWindow is how many recent samples InMemoryMetrics keeps per timing.
const TimingWindow = 256

// InMemoryMetrics keeps metrics in process. Used by tests and the worker
// health endpoint. Only the last TimingWindow samples of each timing are kept.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[formatKey(name, tags)] += value
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[formatKey(name, tags)] = value
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := formatKey(name, tags)
	samples := append(m.timings[key], duration)
	if len(samples) > TimingWindow {
		samples = samples[len(samples)-TimingWindow:]
	}
	m.timings[key] = samples
}

// GetCounter returns the current value of a counter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[formatKey(name, tags)]
}

// GetGauge returns the current value of a gauge.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[formatKey(name, tags)]
}

// GetTimings returns all recorded timings.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Duration(nil), m.timings[formatKey(name, tags)]...)
}

// Snapshot returns a copy of all counters keyed by name and tags.
func (m *InMemoryMetrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

// TimingSummary condenses the retained samples of one timing.
type TimingSummary struct {
	Count int           `json:"count"`
	Mean  time.Duration `json:"mean_ns"`
	P95   time.Duration `json:"p95_ns"`
	Max   time.Duration `json:"max_ns"`
}

// Summarize returns the summary of samples. P95 uses the nearest rank.
func Summarize(samples []time.Duration) TimingSummary {
	if len(samples) == 0 {
		return TimingSummary{}
	}
	sorted := append([]time.Duration(nil), samples...)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	rank := (95*len(sorted) + 99) / 100
	return TimingSummary{
		Count: len(sorted),
		Mean:  total / time.Duration(len(sorted)),
		P95:   sorted[rank-1],
		Max:   sorted[len(sorted)-1],
	}
}

// TimingSnapshot summarizes every timing keyed by name and tags.
func (m *InMemoryMetrics) TimingSnapshot() map[string]TimingSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]TimingSummary, len(m.timings))
	for k, samples := range m.timings {
		out[k] = Summarize(samples)
	}
	return out
}

// formatKey builds name:k1=v1:k2=v2 with tags sorted by key so the
// order tags were passed in does not matter.
func formatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := append([]Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(name)
	for _, t := range sorted {
		b.WriteString(":" + t.Key + "=" + t.Value)
	}
	return b.String()
}

// Metric names.
const (
	MetricReminderTicks         = "cyclist.reminders.ticks"
	MetricReminderTicksSkipped  = "cyclist.reminders.ticks_skipped"
	MetricReminderTickFailures  = "cyclist.reminders.tick_failures"
	MetricReminderTickDuration  = "cyclist.reminders.tick_duration"
	MetricReminderUsersSkipped  = "cyclist.reminders.users_skipped"
	MetricReminderSent          = "cyclist.reminders.sent"
	MetricReminderFailed        = "cyclist.reminders.failed"
	MetricReminderDuplicates    = "cyclist.reminders.duplicates"
	MetricForecastsComputed     = "cyclist.forecasts.computed"
	MetricEventsPublished       = "cyclist.events.published"
	MetricEventsPublishFailures = "cyclist.events.publish_failures"
	MetricDeliveriesAudited     = "cyclist.reminders.deliveries_audited"
)
