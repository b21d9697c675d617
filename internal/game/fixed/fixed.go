// Package fixed provides the signed 16-bit fixed-point scalar used by every
// part of the simulation kernel. No floating point is used anywhere in this
// package; all results are exact under the truncation rules documented on
// each operation.
package fixed

import (
	"fmt"
	"math"
)

// FracBits is the number of fractional bits in a Fixed.
const FracBits = 4

// Fixed is a Q11.4 signed fixed-point number stored in 16 bits.
type Fixed int16

// Well-known values.
const (
	Zero     Fixed = 0
	One      Fixed = 1 << FracBits
	Half     Fixed = One >> 1
	NegOne   Fixed = -One
	Epsilon  Fixed = 1
	Max      Fixed = math.MaxInt16
	Min      Fixed = math.MinInt16
	fracMask       = int32(One) - 1
)

// FromInt converts an integer, saturating outside the representable range.
func FromInt(i int) Fixed {
	return saturate(int64(i) << FracBits)
}

// FromRaw reinterprets a raw 16-bit value as a Fixed.
func FromRaw(raw int16) Fixed { return Fixed(raw) }

// FromRatio returns num/den truncated toward zero.
//
// Precondition: den != 0.
// Postcondition: Returns Zero when den == 0.
func FromRatio(num, den int) Fixed {
	if den == 0 {
		return Zero
	}
	return saturate((int64(num) << FracBits) / int64(den))
}

// Raw returns the underlying 16-bit representation.
func (f Fixed) Raw() int16 { return int16(f) }

// Int returns the integer part, rounding toward negative infinity.
func (f Fixed) Int() int { return int(f) >> FracBits }

// Frac returns the fractional bits as a non-negative count of 1/One units.
func (f Fixed) Frac() int { return int(int32(f) & fracMask) }

func saturate(v int64) Fixed {
	if v > math.MaxInt16 {
		return Max
	}
	if v < math.MinInt16 {
		return Min
	}
	return Fixed(v)
}

// Add returns f+g, saturating on overflow.
func (f Fixed) Add(g Fixed) Fixed { return saturate(int64(f) + int64(g)) }

// Sub returns f-g, saturating on overflow.
func (f Fixed) Sub(g Fixed) Fixed { return saturate(int64(f) - int64(g)) }

// Mul returns f*g. The 32-bit product is shifted arithmetically, so the
// result rounds toward negative infinity before saturating.
func (f Fixed) Mul(g Fixed) Fixed {
	return saturate((int64(f) * int64(g)) >> FracBits)
}

// Div returns f/g truncated toward zero, saturating on overflow.
// Division by zero saturates toward the sign of f, and 0/0 is Zero.
func (f Fixed) Div(g Fixed) Fixed {
	q, ok := f.CheckedDiv(g)
	if ok {
		return q
	}
	switch {
	case f > 0:
		return Max
	case f < 0:
		return Min
	default:
		return Zero
	}
}

// CheckedDiv returns f/g and false when g is zero.
func (f Fixed) CheckedDiv(g Fixed) (Fixed, bool) {
	if g == 0 {
		return Zero, false
	}
	return saturate((int64(f) << FracBits) / int64(g)), true
}

// Neg returns -f, saturating Min to Max.
func (f Fixed) Neg() Fixed { return saturate(-int64(f)) }

// Abs returns |f|, saturating Min to Max.
func (f Fixed) Abs() Fixed {
	if f < 0 {
		return f.Neg()
	}
	return f
}

// WrappingAdd returns f+g modulo 2^16.
func (f Fixed) WrappingAdd(g Fixed) Fixed { return Fixed(int16(uint16(f) + uint16(g))) }

// WrappingSub returns f-g modulo 2^16.
func (f Fixed) WrappingSub(g Fixed) Fixed { return Fixed(int16(uint16(f) - uint16(g))) }

// WrappingMul returns f*g with the shifted product truncated to 16 bits.
func (f Fixed) WrappingMul(g Fixed) Fixed {
	return Fixed(int16((int32(f) * int32(g)) >> FracBits))
}

// WrappingNeg returns -f modulo 2^16; Min stays Min.
func (f Fixed) WrappingNeg() Fixed { return Fixed(int16(-uint16(f))) }

// Sign returns NegOne, Zero or One.
func (f Fixed) Sign() Fixed {
	switch {
	case f < 0:
		return NegOne
	case f > 0:
		return One
	default:
		return Zero
	}
}

// Clamp restricts f to [lo, hi].
func (f Fixed) Clamp(lo, hi Fixed) Fixed {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// MinOf returns the smaller of a and b.
func MinOf(a, b Fixed) Fixed {
	if a < b {
		return a
	}
	return b
}

// MaxOf returns the larger of a and b.
func MaxOf(a, b Fixed) Fixed {
	if a > b {
		return a
	}
	return b
}

// String renders the exact value as "num/den", or as an integer when the
// fractional part is zero.
func (f Fixed) String() string {
	return f.Ratio().Reduced().String()
}

// Ratio is the exact numerator/denominator form used when a Fixed crosses
// the kernel boundary.
type Ratio struct {
	Num int32
	Den int32
}

// Ratio returns the exact unreduced ratio raw/One.
func (f Fixed) Ratio() Ratio { return Ratio{Num: int32(f), Den: int32(One)} }

// Reduced divides numerator and denominator by their greatest common divisor.
//
// Postcondition: Den > 0.
func (r Ratio) Reduced() Ratio {
	if r.Den == 0 {
		return r
	}
	if r.Den < 0 {
		r.Num, r.Den = -r.Num, -r.Den
	}
	g := gcd(abs32(r.Num), r.Den)
	if g > 1 {
		r.Num /= g
		r.Den /= g
	}
	return r
}

// Fixed converts the ratio back, truncating toward zero.
func (r Ratio) Fixed() Fixed { return FromRatio(int(r.Num), int(r.Den)) }

// String renders "num/den", or just "num" when den is 1.
func (r Ratio) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func gcd(a, b int32) int32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
