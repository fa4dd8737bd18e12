package buffer

import "github.com/sarchlab/firverify/dut"

// Monitor follows the buffer through a sequence of CSR reads. It records the
// count trace and checks that ibovf, once set, stays set until a clear.
type Monitor struct {
	counts        []dut.Value
	available     int
	overflowSeen  bool
	firstOverflow int
	latched       bool
	violations    int
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{firstOverflow: -1}
}

// Observe records one successful read.
func (m *Monitor) Observe(s State) {
	m.counts = append(m.counts, dut.Available(int64(s.Count)))
	m.available++

	switch {
	case s.Overflow && !m.overflowSeen:
		m.overflowSeen = true
		m.firstOverflow = len(m.counts) - 1
	case !s.Overflow && m.latched:
		m.violations++
	}

	m.latched = s.Overflow
}

// ObserveUnavailable records a read that produced no answer. It neither
// confirms nor breaks stickiness.
func (m *Monitor) ObserveUnavailable() {
	m.counts = append(m.counts, dut.Unavailable)
}

// ObserveValue records a read that may be unavailable.
func (m *Monitor) ObserveValue(s State, ok bool) {
	if !ok {
		m.ObserveUnavailable()
		return
	}

	m.Observe(s)
}

// NoteClear tells the monitor that a buffer clear was issued. ibovf may drop
// after this point without counting as a violation.
func (m *Monitor) NoteClear() {
	m.latched = false
}

// OverflowSeen reports whether any read showed ibovf=1.
func (m *Monitor) OverflowSeen() bool {
	return m.overflowSeen
}

// FirstOverflow returns the index of the first read that showed ibovf=1.
func (m *Monitor) FirstOverflow() (int, bool) {
	return m.firstOverflow, m.overflowSeen
}

// Violations returns how many times ibovf dropped without a clear.
func (m *Monitor) Violations() int {
	return m.violations
}

// Sticky reports whether overflow was seen and never dropped on its own.
func (m *Monitor) Sticky() bool {
	return m.overflowSeen && m.violations == 0
}

// AnyAvailable reports whether at least one read produced an answer.
func (m *Monitor) AnyAvailable() bool {
	return m.available > 0
}

// CountTrace returns ibcnt of every read in order.
func (m *Monitor) CountTrace() []dut.Value {
	out := make([]dut.Value, len(m.counts))
	copy(out, m.counts)

	return out
}
