// Package metrics implements the pipeline's additive atomic counters:
// write-once-per-event, read lazily, with no snapshot barrier. Consumers
// reading mid-stream may observe inconsistent cross-counter values; this is
// intentional, matching the reference pipeline's metrics design.
package metrics

import "sync/atomic"

// Metrics holds per-field additive counters updated only by the worker.
type Metrics struct {
	BytesRead      atomic.Uint64
	RowsParsed     atomic.Uint64
	BatchesEmitted atomic.Uint64
	QueueWaitNs    atomic.Uint64
	ParseTimeNs    atomic.Uint64
	ReadTimeNs     atomic.Uint64
	BuildTimeNs    atomic.Uint64
	EmitTimeNs     atomic.Uint64

	ArenaBytesAllocated atomic.Uint64
	ArenaBlocks         atomic.Uint64
	ArenaResets         atomic.Uint64
	PeakArenaUsage      atomic.Uint64
}

// Snapshot is a point-in-time, non-atomic read of every counter.
type Snapshot struct {
	BytesRead      uint64
	RowsParsed     uint64
	BatchesEmitted uint64
	QueueWaitNs    uint64
	ParseTimeNs    uint64
	ReadTimeNs     uint64
	BuildTimeNs    uint64
	EmitTimeNs     uint64

	ArenaBytesAllocated uint64
	ArenaBlocks         uint64
	ArenaResets         uint64
	PeakArenaUsage      uint64
}

// Snapshot reads every counter without any cross-counter consistency
// guarantee.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		BytesRead:           m.BytesRead.Load(),
		RowsParsed:          m.RowsParsed.Load(),
		BatchesEmitted:      m.BatchesEmitted.Load(),
		QueueWaitNs:         m.QueueWaitNs.Load(),
		ParseTimeNs:         m.ParseTimeNs.Load(),
		ReadTimeNs:          m.ReadTimeNs.Load(),
		BuildTimeNs:         m.BuildTimeNs.Load(),
		EmitTimeNs:          m.EmitTimeNs.Load(),
		ArenaBytesAllocated: m.ArenaBytesAllocated.Load(),
		ArenaBlocks:         m.ArenaBlocks.Load(),
		ArenaResets:         m.ArenaResets.Load(),
		PeakArenaUsage:      m.PeakArenaUsage.Load(),
	}
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	m.BytesRead.Store(0)
	m.RowsParsed.Store(0)
	m.BatchesEmitted.Store(0)
	m.QueueWaitNs.Store(0)
	m.ParseTimeNs.Store(0)
	m.ReadTimeNs.Store(0)
	m.BuildTimeNs.Store(0)
	m.EmitTimeNs.Store(0)
	m.ArenaBytesAllocated.Store(0)
	m.ArenaBlocks.Store(0)
	m.ArenaResets.Store(0)
	m.PeakArenaUsage.Store(0)
}
