package safe

import (
	"math"
	"math/bits"
)

// Add performs int64 addition and panics on overflow/underflow.
// Escrow accounting must never silently wrap.
func Add(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic("SAFE_ADD_OVERFLOW")
	}
	return a + b
}

// Sub performs int64 subtraction and panics on overflow/underflow.
func Sub(a, b int64) int64 {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		panic("SAFE_SUB_OVERFLOW")
	}
	return a - b
}

// Mul performs int64 multiplication and panics on overflow/underflow.
func Mul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > 0 {
		if b > 0 {
			if a > math.MaxInt64/b {
				panic("SAFE_MUL_OVERFLOW")
			}
		} else {
			if b < math.MinInt64/a {
				panic("SAFE_MUL_OVERFLOW")
			}
		}
	} else {
		if b > 0 {
			if a < math.MinInt64/b {
				panic("SAFE_MUL_OVERFLOW")
			}
		} else {
			if a < math.MaxInt64/b {
				panic("SAFE_MUL_OVERFLOW")
			}
		}
	}
	return a * b
}

// MulDiv computes floor(a*b/c) for non-negative a, b and positive c using a
// 128-bit intermediate, so fee math never overflows for prices near MaxInt64.
// Panics if the inputs are out of range or the quotient does not fit in int64.
func MulDiv(a, b, c int64) int64 {
	if a < 0 || b < 0 {
		panic("SAFE_MULDIV_NEGATIVE")
	}
	if c <= 0 {
		panic("SAFE_MULDIV_DIV_BY_ZERO")
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(c) {
		panic("SAFE_MULDIV_OVERFLOW")
	}
	q, _ := bits.Div64(hi, lo, uint64(c))
	if q > math.MaxInt64 {
		panic("SAFE_MULDIV_OVERFLOW")
	}
	return int64(q)
}
