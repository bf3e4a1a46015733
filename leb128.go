package wasm

const (
	maxLen32 = 5
	maxLen64 = 10
)

// Uint32 decodes unsigned LEB128 of at most 32 bits.
func (d *LowDecoder) Uint32(b []byte, st int) (v uint32, i int, err error) {
	x, i, err := d.uleb(b, st, 32)
	return uint32(x), i, err
}

// Uint64 decodes unsigned LEB128 of at most 64 bits.
func (d *LowDecoder) Uint64(b []byte, st int) (v uint64, i int, err error) {
	return d.uleb(b, st, 64)
}

// Int decodes u32 LEB128 as int, the way vector lengths and indexes are encoded.
func (d *LowDecoder) Int(b []byte, st int) (v, i int, err error) {
	x, i, err := d.uleb(b, st, 32)
	return int(x), i, err
}

// Int32 decodes signed LEB128 of at most 32 bits.
func (d *LowDecoder) Int32(b []byte, st int) (v int32, i int, err error) {
	x, i, err := d.sleb(b, st, 32)
	return int32(x), i, err
}

// Int64 decodes signed LEB128 of at most 64 bits.
func (d *LowDecoder) Int64(b []byte, st int) (v int64, i int, err error) {
	return d.sleb(b, st, 64)
}

func (d *LowDecoder) uleb(b []byte, st int, width uint) (v uint64, i int, err error) {
	var s uint
	i = st
	max := (int(width) + 6) / 7

	for n := 0; ; n++ {
		if i >= len(b) {
			return 0, st, posErr(i, ErrUnexpectedEOF)
		}

		x := b[i]
		i++

		if n == max-1 {
			if x&0x80 != 0 {
				return 0, st, posErr(i-1, ErrMalformedInt)
			}

			if unused := x &^ (1<<(width-s) - 1); unused != 0 {
				return 0, st, posErr(i-1, ErrOverflow)
			}
		}

		v |= uint64(x&0x7f) << s
		s += 7

		if x&0x80 != 0 {
			continue
		}

		if n != 0 && x == 0 && !d.AllowPadded {
			return 0, st, posErr(i-1, ErrMalformedInt)
		}

		return v, i, nil
	}
}

func (d *LowDecoder) sleb(b []byte, st int, width uint) (v int64, i int, err error) {
	var s uint
	var prev byte
	i = st
	max := (int(width) + 6) / 7

	for n := 0; ; n++ {
		if i >= len(b) {
			return 0, st, posErr(i, ErrUnexpectedEOF)
		}

		x := b[i]
		i++

		if n == max-1 {
			if x&0x80 != 0 {
				return 0, st, posErr(i-1, ErrMalformedInt)
			}

			// bits above width must repeat the sign bit
			used := width - s
			sign := x >> (used - 1) & 1
			high := x &^ (1<<used - 1) & 0x7f

			if sign == 0 && high != 0 || sign == 1 && high != 0x7f&^(1<<used-1) {
				return 0, st, posErr(i-1, ErrOverflow)
			}
		}

		v |= int64(x&0x7f) << s
		s += 7

		if x&0x80 != 0 {
			prev = x
			continue
		}

		if n != 0 && !d.AllowPadded &&
			(x == 0x00 && prev&0x40 == 0 || x == 0x7f && prev&0x40 != 0) {
			return 0, st, posErr(i-1, ErrMalformedInt)
		}

		if s < 64 && x&0x40 != 0 {
			v |= -1 << s
		}

		return v, i, nil
	}
}
