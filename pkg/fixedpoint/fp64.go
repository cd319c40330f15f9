// Package fixedpoint implements deterministic fixed-point numeric types used
// for audio-time math. Floating point accumulates platform-dependent drift
// over long mixing sessions; fixed point does not.
package fixedpoint

import "math"

const fractionalBits64 = 16

const fractionalMask64 int64 = (1 << fractionalBits64) - 1

var fixedPointFactor64 float64 = float64(int64(1) << fractionalBits64)

var invFixedPointFactor64 = 1.0 / fixedPointFactor64

var (
	fp64Pi        = FP64{data: int64(math.Pi * fixedPointFactor64)}
	fp64PiFract2  = FP64{data: int64(math.Pi * 0.5 * fixedPointFactor64)}
	fp64PiSquared = FP64{data: int64(math.Pi * math.Pi * fixedPointFactor64)}
	fp64TwoPi     = FP64{data: int64(2.0 * math.Pi * fixedPointFactor64)}
	fp64InvTwoPi  = FP64{data: int64(fixedPointFactor64 / (2.0 * math.Pi))}

	fp64TwoOverPiSquared = FP64{data: int64((2.0 / math.Pi) * (2.0 / math.Pi) * fixedPointFactor64)}
	fp64SplineK0         = FP64{data: int64(0.775 * fixedPointFactor64)}
	fp64SplineK1         = FP64{data: int64((1.0 - 0.775) * fixedPointFactor64)}
)

// FP64 is a signed fixed-point number in Q47.16 format: the low 16 bits hold
// the fractional part. All audio-time math uses this type.
type FP64 struct {
	data int64
}

// Zero64 returns the additive identity.
func Zero64() FP64 { return FP64{} }

// Pi64, TwoPi64, InvTwoPi64, PiFract2_64 and PiSquared64 expose pre-scaled
// trigonometric constants.
func Pi64() FP64        { return fp64Pi }
func TwoPi64() FP64     { return fp64TwoPi }
func InvTwoPi64() FP64  { return fp64InvTwoPi }
func PiFract2_64() FP64 { return fp64PiFract2 }
func PiSquared64() FP64 { return fp64PiSquared }

// Bits returns the raw fixed-point representation.
func (f FP64) Bits() int64 { return f.data }

// FromBits64 wraps a raw fixed-point representation without scaling it.
// Use the From* conversions to scale plain integers/floats instead.
func FromBits64(bits int64) FP64 { return FP64{data: bits} }

func (f FP64) Floor() FP64 { return FromBits64(f.data &^ fractionalMask64) }

func (f FP64) Ceil() FP64 { return f.MulI64(-1).Floor().MulI64(-1) }

func (f FP64) Fract() FP64 { return FromBits64(f.data & fractionalMask64) }

// FastMod64 computes x mod 2^exp, the common case for wrap-around timelines.
// exp must be in [0, 47]; the core treats a violation as a programmer error.
func (f FP64) FastMod64(exp uint8) FP64 {
	mask := (int64(1) << (exp + fractionalBits64)) - 1
	return FromBits64(f.data & mask)
}

func (f FP64) AsInt64() int64 { return f.data >> fractionalBits64 }

func (f FP64) AsFloat64() float64 { return float64(f.data) * invFixedPointFactor64 }

func (f FP64) Add(rhs FP64) FP64 { return FromBits64(f.data + rhs.data) }
func (f FP64) Sub(rhs FP64) FP64 { return FromBits64(f.data - rhs.data) }

// Mul keeps the product in range by shedding low bits of each operand before
// multiplying rather than widening to 128 bits.
func (f FP64) Mul(rhs FP64) FP64 { return FromBits64((f.data >> 8) * (rhs.data >> 8)) }

// Div shifts the dividend up 8 bits before dividing and the quotient up 8
// bits after, to preserve fractional precision.
// Dividing by zero is a programmer error and panics, matching the core's
// fatal-error policy for malformed fixed-point arithmetic.
func (f FP64) Div(rhs FP64) FP64 {
	if rhs.data == 0 {
		panic("fixedpoint: division by zero")
	}
	return FromBits64(((f.data << 8) / rhs.data) << 8)
}

func (f FP64) AddI64(rhs int64) FP64 { return f.Add(FromInt64(rhs)) }
func (f FP64) SubI64(rhs int64) FP64 { return f.Sub(FromInt64(rhs)) }
func (f FP64) MulI64(rhs int64) FP64 { return f.Mul(FromInt64(rhs)) }
func (f FP64) DivI64(rhs int64) FP64 { return f.Div(FromInt64(rhs)) }

func (f FP64) Shr(n uint8) FP64 { return FromBits64(f.data >> n) }
func (f FP64) Shl(n uint8) FP64 { return FromBits64(f.data << n) }

func (f FP64) Neg() FP64 { return FromBits64(-f.data) }

func (f FP64) Equal(rhs FP64) bool   { return f.data == rhs.data }
func (f FP64) Less(rhs FP64) bool    { return f.data < rhs.data }
func (f FP64) LessEq(rhs FP64) bool  { return f.data <= rhs.data }
func (f FP64) Greater(rhs FP64) bool { return f.data > rhs.data }
func (f FP64) GreaterEq(rhs FP64) bool {
	return f.data >= rhs.data
}

func (f FP64) String() string {
	return formatFloat(f.AsFloat64())
}

// FromInt32, FromInt64, FromUint32, FromUint64 scale an integer into the
// fixed-point representation; all fractional bits start zeroed.
func FromInt32(n int32) FP64   { return FP64{data: int64(n) << fractionalBits64} }
func FromInt64(n int64) FP64   { return FP64{data: n << fractionalBits64} }
func FromUint32(n uint32) FP64 { return FP64{data: int64(n) << fractionalBits64} }
func FromUint64(n uint64) FP64 { return FP64{data: int64(n) << fractionalBits64} }

// FromFP32 widens an FP32 (Q15.16) into FP64 (Q47.16). Both types share the
// same 16 fractional bits, so this is a sign-extension, not a rescale.
func FromFP32(f FP32) FP64 { return FP64{data: int64(f.Bits())} }

// FromFloat32 and FromFloat64 scale a floating point value, truncating
// toward zero at the bit boundary.
func FromFloat32(n float32) FP64 {
	return FromBits64(int64(float64(n) * fixedPointFactor64))
}
func FromFloat64(n float64) FP64 {
	return FromBits64(int64(n * fixedPointFactor64))
}

// Remainder computes a general modulo using a precomputed reciprocal of the
// divisor, avoiding a true fixed-point division in the hot trig path. The
// divisor is assumed to be relatively small.
func (f FP64) Remainder(invDivisor, divisor FP64) FP64 {
	xScaled := FromBits64((f.data >> 14) * (invDivisor.data >> 1) >> 1)
	xQuotient := xScaled.Floor()
	xMultiple := FromBits64((xQuotient.data >> 14) * (divisor.data >> 1) >> 1)
	return f.Sub(xMultiple)
}

// Sin computes sine via a two-stage spline approximation: an inaccurate
// parabolic spline blended with its own square to correct the peak error,
// folded onto [0, 2pi) by Remainder. No multiplication occurs outside
// fixed-point arithmetic. Accurate to within 0.03 absolute error.
func (f FP64) Sin() FP64 {
	inaccurateSpline := func(x FP64) FP64 {
		return x.Mul(fp64Pi.Sub(x)).Mul(fp64TwoOverPiSquared)
	}

	accurateSpline := func(x FP64) FP64 {
		spline := inaccurateSpline(x)
		splineSquared := spline.Mul(spline)

		accurate := fp64SplineK0.Mul(spline).Add(fp64SplineK1.Mul(splineSquared))

		whenGtZero := (Zero64().Sub(x)).data >> 63
		whenLtPi := (x.Sub(fp64Pi)).data >> 63
		return FromBits64(accurate.data & (whenGtZero & whenLtPi))
	}

	spline0To2Pi := func(x FP64) FP64 {
		return accurateSpline(x).Sub(accurateSpline(x.Sub(fp64Pi)))
	}

	t := f.Remainder(fp64InvTwoPi, fp64TwoPi)
	return spline0To2Pi(t)
}

// Cos is sin shifted by a quarter period.
func (f FP64) Cos() FP64 { return f.Add(fp64PiFract2).Sin() }

// Sqrt returns the positive root via digit-by-digit bisection over the
// fixed-point representation itself, so it shares Mul's overflow-safe
// scaling instead of needing a widened intermediate. Negative inputs are
// treated as their absolute value.
func (f FP64) Sqrt() FP64 {
	x := f
	if x.data < 0 {
		x = x.Neg()
	}
	if x.data == 0 {
		return Zero64()
	}

	var result FP64
	bit := FromBits64(int64(1) << 38)
	for bit.data != 0 {
		candidate := result.Add(bit)
		if candidate.Mul(candidate).data <= x.data {
			result = candidate
		}
		bit = bit.Shr(1)
	}
	return result
}
