// Package buffer interprets the input-buffer and halt bits of the CSR.
//
// The device owns the buffer. Nothing here stores buffer state; every State
// is derived from a CSR that was just read back, and the Monitor only
// remembers what it has been shown.
package buffer

import (
	"fmt"

	"github.com/sarchlab/firverify/csr"
)

// State is the buffer-related view of one CSR read.
type State struct {
	Halted   bool
	Enabled  bool
	Count    uint32
	Overflow bool

	// Pulse bits as read back. A device is expected to self-clear them.
	BufferClear bool
	TapClear    bool
}

// StateOf derives the buffer state from a decoded CSR.
func StateOf(r csr.CSR) State {
	return State{
		Halted:      r.Bit(csr.FieldHalt),
		Enabled:     r.Bit(csr.FieldFEN),
		Count:       r.Get(csr.FieldIBCnt),
		Overflow:    r.Bit(csr.FieldIBOvf),
		BufferClear: r.Bit(csr.FieldIBClr),
		TapClear:    r.Bit(csr.FieldTClr),
	}
}

// Cleared reports whether the buffer reads as empty. This is the check that
// a clear pulse took effect; the pulse bit itself is not consulted.
func (s State) Cleared() bool {
	return s.Count == 0
}

func (s State) String() string {
	return fmt.Sprintf("halt=%t fen=%t ibcnt=%d ibovf=%t",
		s.Halted, s.Enabled, s.Count, s.Overflow)
}
