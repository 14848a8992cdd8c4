// Package simd implements branch-light structural-byte scanning for the
// slice parser: finding the next delimiter/CR/LF, or the next quote byte,
// within a single contiguous segment. There is no real vector assembly
// linked into this module (none shipped in the reference corpus this was
// built against survives as a buildable .s file); instead every path uses
// a SWAR (SIMD-within-a-register) 8-byte scan, gated by a one-time CPU
// feature probe that only decides whether the wide path is worth taking on
// the current hardware.
package simd

import (
	"encoding/binary"

	"github.com/klauspost/cpuid/v2"
)

const wordSize = 8

const (
	loMask uint64 = 0x0101010101010101
	hiMask uint64 = 0x8080808080808080
)

// wideScanEnabled reports whether the 8-byte SWAR path should be used on
// this CPU. On anything reporting a 64-bit-friendly instruction set
// (effectively all amd64/arm64 hardware encountered in practice) this is
// true; it exists as a single dispatch point rather than a per-call branch.
var wideScanEnabled = cpuid.CPU.X64Level() > 0 || cpuid.CPU.Supports(cpuid.SSE2) || cpuid.CPU.Supports(cpuid.ASIMD)

// hasZeroByte reports whether v, read as a little-endian group of eight
// bytes each containing 0 where a match occurred, contains any matching
// byte. This is the classic "does this word contain a zero byte" trick.
func hasZeroByte(v uint64) bool {
	return (v-loMask)&^v&hiMask != 0
}

func trailingZeroBytes(mask uint64) int {
	n := 0
	for mask&0xFF == 0 {
		mask >>= 8
		n++
	}
	return n
}

func broadcast(b byte) uint64 {
	return loMask * uint64(b)
}

// ScanStructural returns the index of the first occurrence of delim, '\r',
// or '\n' in data, or len(data) if none is present.
func ScanStructural(data []byte, delim byte) int {
	n := len(data)
	i := 0
	if wideScanEnabled {
		delimBcast := broadcast(delim)
		crBcast := broadcast('\r')
		lfBcast := broadcast('\n')
		for ; i+wordSize <= n; i += wordSize {
			word := binary.LittleEndian.Uint64(data[i : i+wordSize])
			xd := word ^ delimBcast
			xc := word ^ crBcast
			xl := word ^ lfBcast
			if hasZeroByte(xd) || hasZeroByte(xc) || hasZeroByte(xl) {
				for j := 0; j < wordSize; j++ {
					c := data[i+j]
					if c == delim || c == '\r' || c == '\n' {
						return i + j
					}
				}
			}
		}
	}
	for ; i < n; i++ {
		c := data[i]
		if c == delim || c == '\r' || c == '\n' {
			return i
		}
	}
	return n
}

// ScanChar returns the index of the first occurrence of target in data, or
// len(data) if absent.
func ScanChar(data []byte, target byte) int {
	n := len(data)
	i := 0
	if wideScanEnabled {
		targetBcast := broadcast(target)
		for ; i+wordSize <= n; i += wordSize {
			word := binary.LittleEndian.Uint64(data[i : i+wordSize])
			x := word ^ targetBcast
			if hasZeroByte(x) {
				d := (x - loMask) &^ x & hiMask
				return i + trailingZeroBytes(d)
			}
		}
	}
	for ; i < n; i++ {
		if data[i] == target {
			return i
		}
	}
	return n
}
