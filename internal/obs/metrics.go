package obs

import (
	"sort"
	"strings"
	"sync"
)

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// MemMeter keeps counter totals and histogram sums in memory. It is safe
// for concurrent use.
type MemMeter struct {
	mu       sync.Mutex
	counters map[string]float64
	hists    map[string]*Summary
}

// Summary is the running aggregate of one histogram series.
type Summary struct {
	Count int
	Sum   float64
	Max   float64
}

// NewMemMeter returns an empty MemMeter.
func NewMemMeter() *MemMeter {
	return &MemMeter{counters: make(map[string]float64), hists: make(map[string]*Summary)}
}

// Counter adds value to the series.
func (m *MemMeter) Counter(name string, value float64, labels ...Label) {
	m.mu.Lock()
	m.counters[seriesKey(name, labels)] += value
	m.mu.Unlock()
}

// Histogram records one observation.
func (m *MemMeter) Histogram(name string, value float64, labels ...Label) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := seriesKey(name, labels)
	s := m.hists[k]
	if s == nil {
		s = &Summary{}
		m.hists[k] = s
	}
	s.Count++
	s.Sum += value
	if value > s.Max {
		s.Max = value
	}
}

// Value returns the counter total for name with exactly the given labels.
func (m *MemMeter) Value(name string, labels ...Label) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[seriesKey(name, labels)]
}

// Counters returns a copy of every counter series, keyed like
// name{k=v,...}.
func (m *MemMeter) Counters() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

// Histograms returns a copy of every histogram series.
func (m *MemMeter) Histograms() map[string]Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Summary, len(m.hists))
	for k, v := range m.hists {
		out[k] = *v
	}
	return out
}

func seriesKey(name string, labels []Label) string {
	if len(labels) == 0 {
		return name
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.Key + "=" + l.Value
	}
	sort.Strings(parts)
	return name + "{" + strings.Join(parts, ",") + "}"
}
