// Package booid implements a Snowflake-style 64-bit identifier used to
// tag screen rows with a stable, monotonically increasing key.
package booid

import (
	"sync"
	"time"
)

const (
	seqBits     = 12
	machineBits = 10
	seqMax      = 1<<seqBits - 1
	machineMax  = 1<<machineBits - 1

	seqShift     = 0
	machineShift = seqBits
	tsShift      = seqBits + machineBits
)

// Epoch is the fixed reference point for the 42-bit millisecond
// timestamp component. 2024-01-01T00:00:00Z, chosen so the timestamp
// field does not wrap for roughly 139 years.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Generator produces Booid values for a single machine id. It is safe
// for concurrent use.
type Generator struct {
	mu        sync.Mutex
	machineID uint64
	lastTS    int64
	seq       uint64
}

// NewGenerator returns a Generator for the given machine id, masked to
// 10 bits.
func NewGenerator(machineID uint16) *Generator {
	return &Generator{machineID: uint64(machineID) & machineMax}
}

// Next returns the next Booid. Within a single Generator, successive
// calls are strictly increasing when compared as unsigned 64-bit
// integers.
func (g *Generator) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := time.Since(Epoch).Milliseconds()
	if ts < 0 {
		ts = 0
	}
	if ts == g.lastTS {
		g.seq = (g.seq + 1) & seqMax
		if g.seq == 0 {
			// Sequence exhausted within this millisecond; spin to the
			// next tick so ordering is preserved.
			for ts <= g.lastTS {
				ts = time.Since(Epoch).Milliseconds()
			}
		}
	} else {
		g.seq = 0
	}
	g.lastTS = ts

	return uint64(ts)<<tsShift | (g.machineID&machineMax)<<machineShift | (g.seq & seqMax)
}

// Decode splits a Booid back into its timestamp, machine id, and
// sequence components. Primarily useful for debugging and tests.
func Decode(id uint64) (ts int64, machine uint16, seq uint16) {
	seq = uint16(id & seqMax)
	machine = uint16((id >> machineShift) & machineMax)
	ts = int64(id >> tsShift)
	return
}
