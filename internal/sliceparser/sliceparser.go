// Package sliceparser implements the CSV state machine at the heart of
// this module: it consumes up to two adjacent byte segments per call and
// emits (offset, length) field slices into an arena, never retaining a
// pointer into caller-owned memory beyond the call.
package sliceparser

import (
	"github.com/hghukasyan/ultratab/internal/arena"
	"github.com/hghukasyan/ultratab/internal/simd"
)

// FieldSlice refers to a contiguous byte range inside a batch's arena.
type FieldSlice struct {
	Offset int
	Length int
}

// SliceRow is one logical row's emitted field slices, in column order.
type SliceRow = []FieldSlice

// SliceBatch is one batch's rows plus the owned arena bytes every slice in
// it indexes into.
type SliceBatch struct {
	Arena []byte
	Rows  []SliceRow
}

type state int

const (
	stateFieldStart state = iota
	stateInField
	stateInQuoted
	stateInQuotedAfterQuote
)

// Options configures the state machine.
type Options struct {
	Delimiter byte
	Quote     byte
	BatchSize int
}

// DefaultOptions returns the documented default delimiter, quote, and batch
// size.
func DefaultOptions() Options {
	return Options{Delimiter: ',', Quote: '"', BatchSize: 10000}
}

// Parser is the CSV state machine. A Parser is not safe for concurrent use.
type Parser struct {
	opts  Options
	state state
	arena *arena.Arena

	currentRow   SliceRow
	currentBatch []SliceRow
	batchReady   bool
	skipNextRow  bool

	remainder []byte

	selected   []int // logical column indices to keep, nil = all; kept columns are emitted in file order
	logicalCol int
	fieldStart int // virtual position, valid while accumulating a field

	// Per-field bookkeeping, reset every time a new field begins.
	colCounted bool // logicalCol already incremented for this field
	emitting   bool // this field's column is selected for output
	hasEntry   bool // currentRow already holds a slice for this field
}

// New creates a Parser with the given options and a fresh arena whose
// block size is clamped per the arena package's contract.
func New(opts Options) *Parser {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Quote == 0 {
		opts.Quote = '"'
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10000
	}
	return &Parser{
		opts:  opts,
		state: stateFieldStart,
		arena: arena.New(1 << 20),
	}
}

// SetSelectedColumnIndices pushes column selection down into the slice
// stage: logical columns not present in indices are still counted but no
// arena bytes are copied for them. Pass nil to select every column.
func (p *Parser) SetSelectedColumnIndices(indices []int) {
	if indices == nil {
		p.selected = nil
		return
	}
	cp := make([]int, len(indices))
	copy(cp, indices)
	p.selected = cp
}

func (p *Parser) shouldEmit(col int) bool {
	if p.selected == nil {
		return true
	}
	for _, idx := range p.selected {
		if idx == col {
			return true
		}
	}
	return false
}

// SkipOneRow discards the next row that would otherwise be emitted
// (typically the header row).
func (p *Parser) SkipOneRow() {
	p.skipNextRow = true
}

// HasBatch reports whether a batch has reached its configured size and is
// ready to be taken.
func (p *Parser) HasBatch() bool {
	return p.batchReady
}

// TakeBatch copies the arena into an owned buffer, hands over the
// accumulated rows, resets the arena, and starts a fresh batch.
func (p *Parser) TakeBatch() SliceBatch {
	batch := SliceBatch{
		Arena: p.arena.Snapshot(),
		Rows:  p.currentBatch,
	}
	p.currentBatch = nil
	p.arena.Reset()
	p.batchReady = false
	return batch
}

// Remainder returns the unconsumed tail retained after the last Feed call.
func (p *Parser) Remainder() []byte {
	return p.remainder
}

// ArenaStats exposes the underlying arena's debug counters.
func (p *Parser) ArenaStats() arena.Stats {
	return p.arena.Stats()
}

// Feed drives the state machine over two adjacent segments (typically the
// previous call's remainder, then a freshly read chunk). It stops early if
// a batch becomes ready; any unconsumed suffix is retained in Remainder.
func (p *Parser) Feed(seg1, seg2 []byte) {
	len1 := len(seg1)
	consumed1, consumed2 := p.run(seg1, seg2, len1)

	switch {
	case consumed1 < len1:
		rem := make([]byte, 0, (len1-consumed1)+len(seg2))
		rem = append(rem, seg1[consumed1:]...)
		rem = append(rem, seg2...)
		p.remainder = rem
	case consumed2 < len(seg2):
		rem := make([]byte, len(seg2)-consumed2)
		copy(rem, seg2[consumed2:])
		p.remainder = rem
	default:
		p.remainder = nil
	}
}

// Flush finalises any in-progress unterminated field/row at end of input.
// An unterminated quoted field is silently dropped (no partial row is
// emitted), matching the documented contract.
func (p *Parser) Flush() {
	switch p.state {
	case stateInField:
		// Any pending bytes were already committed to the arena by the
		// preceding Feed call's end-of-input flush; only the row itself
		// still needs finalising.
		p.emitRow()
	case stateInQuotedAfterQuote, stateInQuoted:
		// Unterminated quoted field (whether or not a doubled quote was
		// seen already): silently dropped, no row emitted. Discard
		// whatever partial field the preceding Feed call's end-of-input
		// flush committed for it.
		p.currentRow = nil
	case stateFieldStart:
		// nothing pending.
	}
	p.state = stateFieldStart
	p.resetFieldState()
	p.logicalCol = 0
}

func (p *Parser) byteAt(seg1, seg2 []byte, len1, pos int) byte {
	if pos < len1 {
		return seg1[pos]
	}
	return seg2[pos-len1]
}

func (p *Parser) resetFieldState() {
	p.colCounted = false
	p.emitting = false
	p.hasEntry = false
}

// run drives the transition table over the virtual concatenation of
// seg1||seg2 and returns how much of each segment was consumed before the
// loop stopped (either because input ran out, or a batch became ready).
func (p *Parser) run(seg1, seg2 []byte, len1 int) (consumed1, consumed2 int) {
	total := len1 + len(seg2)
	pos := 0

	finish := func(pos int) (int, int) {
		if pos <= len1 {
			return pos, 0
		}
		return len1, pos - len1
	}

	for pos < total {
		switch p.state {
		case stateFieldStart:
			c := p.byteAt(seg1, seg2, len1, pos)
			switch {
			case c == p.opts.Quote:
				pos++
				p.fieldStart = pos
				p.state = stateInQuoted
			case c == p.opts.Delimiter:
				p.writeSegment(seg1, seg2, len1, pos, pos)
				p.resetFieldState()
				pos++
			case c == '\r' || c == '\n':
				p.writeSegment(seg1, seg2, len1, pos, pos)
				p.emitRow()
				pos++
				if c == '\r' && pos < total && p.byteAt(seg1, seg2, len1, pos) == '\n' {
					pos++
				}
				if p.batchReady {
					return finish(pos)
				}
			default:
				p.fieldStart = pos
				p.state = stateInField
				pos++
			}

		case stateInField:
			scanEnd := len1
			if pos >= len1 {
				scanEnd = total
			}
			var window []byte
			if pos < len1 {
				window = seg1[pos:scanEnd]
			} else {
				window = seg2[pos-len1 : scanEnd-len1]
			}
			idx := simd.ScanStructural(window, p.opts.Delimiter)
			if idx < len(window) {
				pos += idx
				c := p.byteAt(seg1, seg2, len1, pos)
				if c == p.opts.Delimiter {
					p.writeSegment(seg1, seg2, len1, p.fieldStart, pos)
					p.resetFieldState()
					p.state = stateFieldStart
					pos++
				} else {
					p.writeSegment(seg1, seg2, len1, p.fieldStart, pos)
					p.emitRow()
					p.state = stateFieldStart
					pos++
					if c == '\r' && pos < total && p.byteAt(seg1, seg2, len1, pos) == '\n' {
						pos++
					}
					if p.batchReady {
						return finish(pos)
					}
				}
			} else {
				pos = scanEnd
			}

		case stateInQuoted:
			scanEnd := len1
			if pos >= len1 {
				scanEnd = total
			}
			var window []byte
			if pos < len1 {
				window = seg1[pos:scanEnd]
			} else {
				window = seg2[pos-len1 : scanEnd-len1]
			}
			idx := simd.ScanChar(window, p.opts.Quote)
			if idx < len(window) {
				pos += idx
				pos++
				p.state = stateInQuotedAfterQuote
			} else {
				pos = scanEnd
			}

		case stateInQuotedAfterQuote:
			c := p.byteAt(seg1, seg2, len1, pos)
			switch {
			case c == p.opts.Quote:
				// Doubled quote: flush the raw run up to (but excluding)
				// the first quote of the pair — pos currently sits on the
				// second quote, one past the first — append one literal
				// quote byte for the escape, and resume inside the quotes.
				if p.fieldStart < pos-1 {
					p.writeSegment(seg1, seg2, len1, p.fieldStart, pos-1)
				} else if !p.colCounted {
					p.writeSegment(seg1, seg2, len1, pos-1, pos-1)
				}
				p.writeLiteralByte(p.opts.Quote)
				pos++
				p.fieldStart = pos
				p.state = stateInQuoted
			case c == p.opts.Delimiter:
				if p.fieldStart < pos-1 {
					p.writeSegment(seg1, seg2, len1, p.fieldStart, pos-1)
				} else if !p.colCounted {
					p.writeSegment(seg1, seg2, len1, pos-1, pos-1)
				}
				p.resetFieldState()
				p.state = stateFieldStart
				pos++
			case c == '\r' || c == '\n':
				if p.fieldStart < pos-1 {
					p.writeSegment(seg1, seg2, len1, p.fieldStart, pos-1)
				} else if !p.colCounted {
					p.writeSegment(seg1, seg2, len1, pos-1, pos-1)
				}
				p.emitRow()
				p.state = stateFieldStart
				pos++
				if c == '\r' && pos < total && p.byteAt(seg1, seg2, len1, pos) == '\n' {
					pos++
				}
				if p.batchReady {
					return finish(pos)
				}
			default:
				p.resetFieldState()
				p.state = stateInField
				p.fieldStart = pos
				pos++
			}
		}
	}

	// Input ran out mid-field: commit whatever of it was scanned in this
	// call to the arena now, rather than leaving fieldStart pointing into
	// seg1/seg2 for the next Feed call to misinterpret against unrelated
	// bytes. The field stays open (state is preserved) so the next call's
	// writeSegment appends to the same slice.
	switch p.state {
	case stateInField, stateInQuoted:
		p.writeSegment(seg1, seg2, len1, p.fieldStart, pos)
		p.fieldStart = 0
	case stateInQuotedAfterQuote:
		if p.fieldStart < pos-1 {
			p.writeSegment(seg1, seg2, len1, p.fieldStart, pos-1)
		} else if !p.colCounted {
			p.writeSegment(seg1, seg2, len1, pos-1, pos-1)
		}
		p.fieldStart = 0
	}

	return finish(pos)
}

// writeSegment emits the virtual byte range [from,to) as part of the
// current field: the first call for a field creates its slice (subject to
// column selection push-down); subsequent calls (following a doubled
// quote) append to that same slice so its bytes remain contiguous in the
// arena.
func (p *Parser) writeSegment(seg1, seg2 []byte, len1, from, to int) {
	if !p.colCounted {
		col := p.logicalCol
		p.logicalCol++
		p.colCounted = true
		p.emitting = p.shouldEmit(col)
	}
	if !p.emitting {
		return
	}

	n := to - from
	if n <= 0 {
		if !p.hasEntry {
			off, _ := p.arena.Allocate(0, 1)
			p.currentRow = append(p.currentRow, FieldSlice{Offset: off, Length: 0})
			p.hasEntry = true
		}
		return
	}

	off, dst := p.arena.Allocate(n, 1)
	written := 0
	if from < len1 {
		end1 := to
		if end1 > len1 {
			end1 = len1
		}
		written += copy(dst[written:], seg1[from:end1])
	}
	if to > len1 {
		start2 := from
		if start2 < len1 {
			start2 = len1
		}
		written += copy(dst[written:], seg2[start2-len1:to-len1])
	}

	if !p.hasEntry {
		p.currentRow = append(p.currentRow, FieldSlice{Offset: off, Length: written})
		p.hasEntry = true
	} else {
		p.currentRow[len(p.currentRow)-1].Length += written
	}
}

// writeLiteralByte appends a single literal byte (the unescaped half of a
// doubled quote) to the current field, under the same column-selection and
// first-write-creates-the-slice rules as writeSegment.
func (p *Parser) writeLiteralByte(b byte) {
	if !p.colCounted {
		col := p.logicalCol
		p.logicalCol++
		p.colCounted = true
		p.emitting = p.shouldEmit(col)
	}
	if !p.emitting {
		return
	}
	off := p.arena.Write([]byte{b})
	if !p.hasEntry {
		p.currentRow = append(p.currentRow, FieldSlice{Offset: off, Length: 1})
		p.hasEntry = true
	} else {
		p.currentRow[len(p.currentRow)-1].Length++
	}
}

func (p *Parser) emitRow() {
	p.resetFieldState()
	if p.skipNextRow {
		p.skipNextRow = false
		p.currentRow = nil
		p.logicalCol = 0
		return
	}
	p.currentBatch = append(p.currentBatch, p.currentRow)
	p.currentRow = nil
	p.logicalCol = 0
	if len(p.currentBatch) >= p.opts.BatchSize {
		p.batchReady = true
	}
}
