package evaluate

import (
	"maps"
	"slices"

	"github.com/rs/zerolog"
)

// Metrics is an immutable, ordered set of named scores.
type Metrics struct {
	names  []string
	values map[string]float64
}

// NewMetrics builds Metrics from name/value pairs in order. A repeated name
// keeps its first position and its last value.
func NewMetrics(pairs ...Pair) Metrics {
	m := Metrics{values: make(map[string]float64, len(pairs))}
	for _, p := range pairs {
		if _, ok := m.values[p.Name]; !ok {
			m.names = append(m.names, p.Name)
		}
		m.values[p.Name] = p.Value
	}
	return m
}

// Pair is one named score.
type Pair struct {
	Name  string
	Value float64
}

// Get returns the value stored under name.
func (m Metrics) Get(name string) (float64, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Names returns metric names in insertion order.
func (m Metrics) Names() []string { return slices.Clone(m.names) }

// Len returns the number of metrics.
func (m Metrics) Len() int { return len(m.names) }

// Map returns a copy of the metrics as a map.
func (m Metrics) Map() map[string]float64 { return maps.Clone(m.values) }

// MarshalZerologObject writes every metric as a float field.
func (m Metrics) MarshalZerologObject(e *zerolog.Event) {
	for _, name := range m.names {
		e.Float64(name, m.values[name])
	}
}
