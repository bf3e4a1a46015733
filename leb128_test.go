package wasm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLEB128RoundTrip(tb *testing.T) {
	var (
		b []byte
		e LowEncoder
		d LowDecoder
	)

	tb.Run("Reference", func(tb *testing.T) {
		b = e.Uint64(b[:0], 624485)
		assert.Equal(tb, []byte{0xe5, 0x8e, 0x26}, b)

		b = e.Int64(b[:0], -123456)
		assert.Equal(tb, []byte{0xc0, 0xbb, 0x78}, b)
	})

	tb.Run("Uint64", func(tb *testing.T) {
		for _, x := range []uint64{0, 1, 5, 100, 127, 128, 512, 624485, 123_456_789, math.MaxUint32, math.MaxUint32 + 1, 1<<63 - 1, 1 << 63, math.MaxUint64} {
			b = e.Uint64(b[:0], x)

			y, i, err := d.Uint64(b, 0)
			assert.NoError(tb, err)
			assert.Equal(tb, len(b), i)
			assert.Equal(tb, x, y)

			if tb.Failed() {
				tb.Logf("x: %v\nb: %x\ny: %v", x, b, y)
				break
			}
		}
	})

	tb.Run("Uint32", func(tb *testing.T) {
		for _, x := range []uint32{0, 1, 127, 128, 16383, 16384, 1<<28 - 1, 1 << 28, math.MaxUint32} {
			b = e.Uint64(b[:0], uint64(x))

			y, i, err := d.Uint32(b, 0)
			assert.NoError(tb, err)
			assert.Equal(tb, len(b), i)
			assert.Equal(tb, x, y)

			if tb.Failed() {
				tb.Logf("x: %v\nb: %x\ny: %v", x, b, y)
				break
			}
		}
	})

	tb.Run("Int64", func(tb *testing.T) {
		for _, x := range []int64{0, 1, -1, 63, 64, -64, -65, 127, 128, -128, 123456, -123456, 123_456_789, -123_456_789, math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64} {
			b = e.Int64(b[:0], x)

			y, i, err := d.Int64(b, 0)
			assert.NoError(tb, err)
			assert.Equal(tb, len(b), i)
			assert.Equal(tb, x, y)

			if tb.Failed() {
				tb.Logf("x: %v\nb: %x\ny: %v", x, b, y)
				break
			}
		}
	})

	tb.Run("Int32", func(tb *testing.T) {
		for _, x := range []int32{0, 1, -1, 63, 64, -64, -65, 1<<27 - 1, 1 << 27, -1 << 27, -1<<27 - 1, math.MaxInt32, math.MinInt32} {
			b = e.Int64(b[:0], int64(x))

			y, i, err := d.Int32(b, 0)
			assert.NoError(tb, err)
			assert.Equal(tb, len(b), i)
			assert.Equal(tb, x, y)

			if tb.Failed() {
				tb.Logf("x: %v\nb: %x\ny: %v", x, b, y)
				break
			}
		}
	})
}

func TestLEB128Errors(tb *testing.T) {
	var d LowDecoder

	type decodeFunc func(b []byte, st int) (int, error)

	u32 := func(b []byte, st int) (int, error) { _, i, err := d.Uint32(b, st); return i, err }
	u64 := func(b []byte, st int) (int, error) { _, i, err := d.Uint64(b, st); return i, err }
	s32 := func(b []byte, st int) (int, error) { _, i, err := d.Int32(b, st); return i, err }
	s64 := func(b []byte, st int) (int, error) { _, i, err := d.Int64(b, st); return i, err }

	for _, tc := range []struct {
		name string
		dec  decodeFunc
		b    []byte
		err  error
		pos  int
	}{
		{"u32_padded_zero", u32, []byte{0x80, 0x00}, ErrMalformedInt, 1},
		{"u64_padded_zero", u64, []byte{0x80, 0x80, 0x00}, ErrMalformedInt, 2},
		{"s32_padded_zero", s32, []byte{0x80, 0x00}, ErrMalformedInt, 1},
		{"s64_padded_zero", s64, []byte{0x80, 0x00}, ErrMalformedInt, 1},
		{"s32_padded_minus_one", s32, []byte{0xff, 0x7f}, ErrMalformedInt, 1},
		{"u32_too_long", u32, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, ErrMalformedInt, 4},
		{"u64_too_long", u64, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, ErrMalformedInt, 9},
		{"u32_overflow", u32, []byte{0xff, 0xff, 0xff, 0xff, 0x1f}, ErrOverflow, 4},
		{"u64_overflow", u64, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}, ErrOverflow, 9},
		{"s32_overflow", s32, []byte{0xff, 0xff, 0xff, 0xff, 0x4f}, ErrOverflow, 4},
		{"s32_overflow_positive", s32, []byte{0x80, 0x80, 0x80, 0x80, 0x08}, ErrOverflow, 4},
		{"s64_overflow", s64, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, ErrOverflow, 9},
		{"u32_eof", u32, []byte{0x80}, ErrUnexpectedEOF, 1},
		{"u32_empty", u32, []byte{}, ErrUnexpectedEOF, 0},
		{"s64_eof", s64, []byte{0xff, 0xff}, ErrUnexpectedEOF, 2},
	} {
		tb.Run(tc.name, func(tb *testing.T) {
			i, err := tc.dec(tc.b, 0)
			require.ErrorIs(tb, err, tc.err)
			assert.Equal(tb, 0, i, "position must not advance on error")

			pos, ok := ErrorPos(err)
			assert.True(tb, ok)
			assert.Equal(tb, tc.pos, pos)
		})
	}
}

func TestLEB128AllowPadded(tb *testing.T) {
	d := LowDecoder{AllowPadded: true}

	v, i, err := d.Uint32([]byte{0x80, 0x80, 0x80, 0x80, 0x00}, 0)
	require.NoError(tb, err)
	assert.Equal(tb, uint32(0), v)
	assert.Equal(tb, 5, i)

	s, i, err := d.Int32([]byte{0xff, 0x7f}, 0)
	require.NoError(tb, err)
	assert.Equal(tb, int32(-1), s)
	assert.Equal(tb, 2, i)

	_, _, err = d.Uint32([]byte{0xff, 0xff, 0xff, 0xff, 0x1f}, 0)
	assert.ErrorIs(tb, err, ErrOverflow)

	_, _, err = d.Uint32([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, 0)
	assert.ErrorIs(tb, err, ErrMalformedInt)
}
