package download

import (
	"math"
	"sync"
)

// ProgressMuxer combines many progress inputs into one weighted fraction.
//
// Inputs may be created at any time. A closed input keeps contributing the
// last fraction it reported, so closing never moves the aggregate backwards.
// Once every input is closed the muxer forgets them all and reports
// "indeterminate" until a new input is created.
type ProgressMuxer struct {
	mu     sync.Mutex
	inputs []*ProgressInput
	open   int

	// notifyMu keeps callback invocations in update order
	notifyMu sync.Mutex
	onUpdate func(fraction float64, ok bool)
}

// ProgressInput is one weighted source of a ProgressMuxer
type ProgressInput struct {
	muxer    *ProgressMuxer
	weight   float64
	fraction float64
	closed   bool
}

// NewProgressMuxer creates an empty muxer
func NewProgressMuxer() *ProgressMuxer {
	return &ProgressMuxer{}
}

// SetUpdateCallback sets the function called after every change of the
// aggregate. The callback must not report into the same muxer.
func (m *ProgressMuxer) SetUpdateCallback(callback func(fraction float64, ok bool)) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.onUpdate = callback
}

// CreateInput registers a new source. Weights that are not positive become 1.
func (m *ProgressMuxer) CreateInput(weight float64) *ProgressInput {
	if !(weight > 0) || math.IsInf(weight, 0) {
		weight = 1
	}
	in := &ProgressInput{muxer: m, weight: weight}

	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	m.open++
	m.notifyLocked()
	return in
}

// Progress returns the weighted mean of all registered inputs.
// ok is false while no inputs are registered.
func (m *ProgressMuxer) Progress() (fraction float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computeLocked()
}

// Len returns the number of registered inputs, closed ones included
func (m *ProgressMuxer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

func (m *ProgressMuxer) computeLocked() (float64, bool) {
	if len(m.inputs) == 0 {
		return 0, false
	}
	var weighted, total float64
	for _, in := range m.inputs {
		weighted += in.weight * in.fraction
		total += in.weight
	}
	return clampFraction(weighted / total), true
}

// notifyLocked must be called with mu held; it releases mu.
func (m *ProgressMuxer) notifyLocked() {
	fraction, ok := m.computeLocked()
	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()

	if m.onUpdate != nil {
		m.onUpdate(fraction, ok)
	}
}

// Report sets the input's fraction. Values are clamped into [0,1] and a
// value lower than the previous report is ignored. Reports after Close and
// NaN values are dropped.
func (in *ProgressInput) Report(fraction float64) {
	if math.IsNaN(fraction) {
		return
	}
	fraction = clampFraction(fraction)

	m := in.muxer
	m.mu.Lock()
	if in.closed || fraction <= in.fraction {
		m.mu.Unlock()
		return
	}
	in.fraction = fraction
	m.notifyLocked()
}

// Fraction returns the last accepted fraction
func (in *ProgressInput) Fraction() float64 {
	in.muxer.mu.Lock()
	defer in.muxer.mu.Unlock()
	return in.fraction
}

// Close freezes the input at its last fraction. It is safe to call more than once.
func (in *ProgressInput) Close() {
	m := in.muxer
	m.mu.Lock()
	if in.closed {
		m.mu.Unlock()
		return
	}
	in.closed = true
	m.open--
	if m.open == 0 {
		m.inputs = nil
	}
	m.notifyLocked()
}

// discard unregisters an input that never took part in a task
func (in *ProgressInput) discard() {
	m := in.muxer
	m.mu.Lock()
	if in.closed {
		m.mu.Unlock()
		return
	}
	in.closed = true
	m.open--
	for i, other := range m.inputs {
		if other == in {
			m.inputs = append(m.inputs[:i], m.inputs[i+1:]...)
			break
		}
	}
	if m.open == 0 {
		m.inputs = nil
	}
	m.notifyLocked()
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
