package typedecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInt32Bounds(t *testing.T) {
	v, ok := Int32([]byte("-2147483648"))
	require.True(t, ok)
	require.Equal(t, int32(-2147483648), v)

	v, ok = Int32([]byte("2147483647"))
	require.True(t, ok)
	require.Equal(t, int32(2147483647), v)

	_, ok = Int32([]byte("2147483648"))
	require.False(t, ok)

	_, ok = Int32([]byte("-2147483649"))
	require.False(t, ok)
}

func TestInt32RejectsNonDigits(t *testing.T) {
	cases := []string{"", "+", "-", "12a", "1.5", " 1", "1 "}
	for _, c := range cases {
		_, ok := Int32([]byte(c))
		require.False(t, ok, "input %q", c)
	}
}

func TestInt64Bounds(t *testing.T) {
	v, ok := Int64([]byte("-9223372036854775808"))
	require.True(t, ok)
	require.Equal(t, int64(-9223372036854775808), v)

	v, ok = Int64([]byte("9223372036854775807"))
	require.True(t, ok)
	require.Equal(t, int64(9223372036854775807), v)

	_, ok = Int64([]byte("9223372036854775808"))
	require.False(t, ok)
}

func TestFloat64Strict(t *testing.T) {
	v, ok := Float64([]byte("3.14"))
	require.True(t, ok)
	require.InDelta(t, 3.14, v, 1e-9)

	v, ok = Float64([]byte("-1.5e10"))
	require.True(t, ok)
	require.InDelta(t, -1.5e10, v, 1e-3)

	_, ok = Float64([]byte("NaN"))
	require.False(t, ok)

	_, ok = Float64([]byte("Inf"))
	require.False(t, ok)

	_, ok = Float64([]byte("1.5 "))
	require.False(t, ok)

	_, ok = Float64([]byte(""))
	require.False(t, ok)
}

func TestBoolVariants(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want bool
		ok   bool
	}{
		{"1", true, true},
		{"0", false, true},
		{"true", true, true},
		{"TRUE", true, true},
		{"False", false, true},
		{"yes", false, false},
		{"", false, false},
	} {
		got, ok := Bool([]byte(tc.in))
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		if ok {
			require.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}
