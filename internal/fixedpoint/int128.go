package fixedpoint

import "math/bits"

// int128 is a minimal signed 128-bit helper used only to carry the
// intermediate product/dividend through Mul and Div without losing bits.
// hi is stored as the raw two's-complement high word (interpret as signed
// via int64(hi) when sign matters); lo is the unsigned low word.
type int128 struct {
	hi uint64
	lo uint64
}

func absU64(x int64) uint64 {
	if x < 0 {
		return uint64(-x)
	}
	return uint64(x)
}

// mul64x64 computes the signed 128-bit product of two int64 values.
func mul64x64(a, b int64) int128 {
	neg := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(absU64(a), absU64(b))
	r := int128{hi: hi, lo: lo}
	if neg {
		r = r.neg()
	}
	return r
}

// signExtend widens an int64 into a signed int128 with the same value.
func signExtend(a int64) int128 {
	if a < 0 {
		return int128{hi: ^uint64(0), lo: uint64(a)}
	}
	return int128{hi: 0, lo: uint64(a)}
}

func (v int128) neg() int128 {
	lo := ^v.lo + 1
	hi := ^v.hi
	if lo == 0 {
		hi++
	}
	return int128{hi: hi, lo: lo}
}

func (v int128) isNeg() bool {
	return int64(v.hi) < 0
}

// abs returns the magnitude of v as an unsigned 128-bit pair.
func (v int128) abs() int128 {
	if v.isNeg() {
		return v.neg()
	}
	return v
}

// shiftLeft shifts v left by n bits (0 < n < 64), as a plain bit shift;
// bits shifted out of the top are discarded. Div uses it only to widen a
// sign-extended int64 dividend by 32 bits, which always fits.
func (v int128) shiftLeft(n uint) int128 {
	hi := (v.hi << n) | (v.lo >> (64 - n))
	lo := v.lo << n
	return int128{hi: hi, lo: lo}
}

// arithmeticShiftRight shifts v right by n bits (0 < n < 64), sign-extending
// the high word the way a signed right shift does.
func (v int128) arithmeticShiftRight(n uint) int128 {
	hiSigned := int64(v.hi) >> n
	lo := (v.hi << (64 - n)) | (v.lo >> n)
	return int128{hi: uint64(hiSigned), lo: lo}
}

// fitsInt64 reports whether v's value is representable as a signed int64.
func (v int128) fitsInt64() bool {
	hiSigned := int64(v.hi)
	switch hiSigned {
	case 0:
		return v.lo <= uint64(1)<<63-1
	case -1:
		return v.lo >= uint64(1)<<63
	default:
		return false
	}
}

// toInt64 returns v's low word reinterpreted as a signed int64. Callers
// must check fitsInt64 first.
func (v int128) toInt64() int64 {
	return int64(v.lo)
}
