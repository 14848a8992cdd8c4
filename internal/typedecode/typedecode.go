// Package typedecode implements strict, allocation-free, locale-independent
// decoders from byte ranges to typed values, used by the columnar builder.
// Unlike a permissive CSV-to-Go-value converter, these decoders accept no
// surrounding whitespace and require the entire input range to be consumed.
package typedecode

import (
	"math"
	"strconv"
	"unsafe"
)

const (
	maxInt32Abs = int64(1) << 31 // accepts -2147483648 but not +2147483648
	maxInt64Abs = uint64(1) << 63
)

// unsafeString reinterprets b as a string without copying. Safe here
// because every caller treats the result as read-only and does not retain
// it beyond the decode call.
func unsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// Int32 parses an optionally signed decimal integer in [-2^31, 2^31-1].
func Int32(b []byte) (int32, bool) {
	v, ok := parseSignedMagnitude(b, maxInt32Abs)
	if !ok {
		return 0, false
	}
	return int32(v), true
}

// Int64 parses an optionally signed decimal integer in [-2^63, 2^63-1].
func Int64(b []byte) (int64, bool) {
	neg, mag, ok := parseMagnitude(b)
	if !ok {
		return 0, false
	}
	if neg {
		if mag > maxInt64Abs {
			return 0, false
		}
		return -int64(mag), true
	}
	if mag >= maxInt64Abs {
		return 0, false
	}
	return int64(mag), true
}

// parseSignedMagnitude is shared by Int32 (and could serve any narrower
// signed integer width) via an explicit absolute-value ceiling.
func parseSignedMagnitude(b []byte, maxAbs int64) (int64, bool) {
	neg, mag, ok := parseMagnitude(b)
	if !ok || mag > uint64(maxAbs) {
		return 0, false
	}
	if neg {
		return -int64(mag), true
	}
	if int64(mag) >= maxAbs {
		return 0, false
	}
	return int64(mag), true
}

// parseMagnitude scans an optional sign followed by one or more ASCII
// digits, with no other characters permitted anywhere in the range.
func parseMagnitude(b []byte) (neg bool, mag uint64, ok bool) {
	if len(b) == 0 {
		return false, 0, false
	}
	i := 0
	switch b[0] {
	case '-':
		neg = true
		i++
	case '+':
		i++
	}
	if i >= len(b) {
		return false, 0, false
	}
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			return false, 0, false
		}
		d := uint64(c - '0')
		if mag > (math.MaxUint64-d)/10 {
			return false, 0, false
		}
		mag = mag*10 + d
	}
	return neg, mag, true
}

// Float64 parses a locale-independent strict decimal/exponent number;
// NaN and ±Inf tokens and hexadecimal floats are rejected even though
// strconv would accept them.
func Float64(b []byte) (float64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	s := unsafeString(b)
	for _, c := range s {
		switch c {
		case 'N', 'n', 'I', 'i', 'X', 'x':
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Bool parses "1", "0", or case-insensitive "true"/"false".
func Bool(b []byte) (bool, bool) {
	switch len(b) {
	case 1:
		switch b[0] {
		case '1':
			return true, true
		case '0':
			return false, true
		}
		return false, false
	case 4:
		if equalFold(b, "true") {
			return true, true
		}
	case 5:
		if equalFold(b, "false") {
			return false, true
		}
	}
	return false, false
}

func equalFold(b []byte, want string) bool {
	if len(b) != len(want) {
		return false
	}
	for i := range b {
		c := b[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != want[i] {
			return false
		}
	}
	return true
}
