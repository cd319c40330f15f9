package fixedpoint

import "math"

const fractionalBits32 = 16

const fractionalMask32 int32 = (1 << fractionalBits32) - 1

var fixedPointFactor32 float32 = float32(int32(1) << fractionalBits32)

var invFixedPointFactor32 = 1.0 / fixedPointFactor32

var (
	fp32Pi       = FP32{data: int32(math.Pi * float64(fixedPointFactor32))}
	fp32PiFract2 = FP32{data: int32(math.Pi * 0.5 * float64(fixedPointFactor32))}
	fp32TwoPi    = FP32{data: int32(2.0 * math.Pi * float64(fixedPointFactor32))}
	fp32InvTwoPi = FP32{data: int32(float64(fixedPointFactor32) / (2.0 * math.Pi))}

	fp32TwoOverPiSquared = FP32{data: int32((2.0 / math.Pi) * (2.0 / math.Pi) * float64(fixedPointFactor32))}
	fp32SplineK0         = FP32{data: int32(0.775 * float64(fixedPointFactor32))}
	fp32SplineK1         = FP32{data: int32((1.0 - 0.775) * float64(fixedPointFactor32))}
)

// FP32 is a signed fixed-point number in Q15.16 format, used for tighter
// storage of control values such as playback speed where the full range of
// FP64 is unnecessary.
type FP32 struct {
	data int32
}

func Zero32() FP32 { return FP32{} }
func Pi32() FP32    { return fp32Pi }

func (f FP32) Bits() int32 { return f.data }

func FromBits32(bits int32) FP32 { return FP32{data: bits} }

func (f FP32) Floor() FP32 { return FromBits32(f.data &^ fractionalMask32) }
func (f FP32) Ceil() FP32  { return f.MulI32(-1).Floor().MulI32(-1) }
func (f FP32) Fract() FP32 { return FromBits32(f.data & fractionalMask32) }

// FastMod32 computes x mod 2^exp.
func (f FP32) FastMod32(exp uint8) FP32 {
	mask := (int32(1) << (exp + fractionalBits32)) - 1
	return FromBits32(f.data & mask)
}

func (f FP32) AsInt32() int32 { return f.data >> fractionalBits32 }

func (f FP32) AsFloat32() float32 { return float32(f.data) * invFixedPointFactor32 }

func (f FP32) Add(rhs FP32) FP32 { return FromBits32(f.data + rhs.data) }
func (f FP32) Sub(rhs FP32) FP32 { return FromBits32(f.data - rhs.data) }
func (f FP32) Mul(rhs FP32) FP32 { return FromBits32((f.data >> 8) * (rhs.data >> 8)) }

func (f FP32) Div(rhs FP32) FP32 {
	if rhs.data == 0 {
		panic("fixedpoint: division by zero")
	}
	return FromBits32(((f.data << 8) / rhs.data) << 8)
}

func (f FP32) AddI32(rhs int32) FP32 { return f.Add(FromInt32_32(rhs)) }
func (f FP32) SubI32(rhs int32) FP32 { return f.Sub(FromInt32_32(rhs)) }
func (f FP32) MulI32(rhs int32) FP32 { return f.Mul(FromInt32_32(rhs)) }
func (f FP32) DivI32(rhs int32) FP32 { return f.Div(FromInt32_32(rhs)) }

func (f FP32) Shr(n uint8) FP32 { return FromBits32(f.data >> n) }
func (f FP32) Shl(n uint8) FP32 { return FromBits32(f.data << n) }

func (f FP32) Neg() FP32 { return FromBits32(-f.data) }

func (f FP32) Equal(rhs FP32) bool      { return f.data == rhs.data }
func (f FP32) Less(rhs FP32) bool       { return f.data < rhs.data }
func (f FP32) LessEq(rhs FP32) bool     { return f.data <= rhs.data }
func (f FP32) Greater(rhs FP32) bool    { return f.data > rhs.data }
func (f FP32) GreaterEq(rhs FP32) bool  { return f.data >= rhs.data }
func (f FP32) IsPositive() bool         { return f.data > 0 }

func (f FP32) String() string { return formatFloat(float64(f.AsFloat32())) }

// FromInt32_32 scales a plain integer into Q15.16; named to avoid colliding
// with the FP64 constructor of almost the same name.
func FromInt32_32(n int32) FP32 { return FP32{data: n << fractionalBits32} }

func FromFloat32_32(n float32) FP32 {
	return FromBits32(int32(n * fixedPointFactor32))
}
func FromFloat64_32(n float64) FP32 {
	return FromBits32(int32(n * float64(fixedPointFactor32)))
}

func (f FP32) Remainder(invDivisor, divisor FP32) FP32 {
	xScaled := FromBits32((f.data >> 14) * (invDivisor.data >> 1) >> 1)
	xQuotient := xScaled.Floor()
	xMultiple := FromBits32((xQuotient.data >> 14) * (divisor.data >> 1) >> 1)
	return f.Sub(xMultiple)
}

func (f FP32) Sin() FP32 {
	inaccurateSpline := func(x FP32) FP32 {
		return x.Mul(fp32Pi.Sub(x)).Mul(fp32TwoOverPiSquared)
	}

	accurateSpline := func(x FP32) FP32 {
		spline := inaccurateSpline(x)
		splineSquared := spline.Mul(spline)

		accurate := fp32SplineK0.Mul(spline).Add(fp32SplineK1.Mul(splineSquared))

		whenGtZero := int32((Zero32().Sub(x)).data >> 31)
		whenLtPi := int32((x.Sub(fp32Pi)).data >> 31)
		return FromBits32(accurate.data & (whenGtZero & whenLtPi))
	}

	spline0To2Pi := func(x FP32) FP32 {
		return accurateSpline(x).Sub(accurateSpline(x.Sub(fp32Pi)))
	}

	t := f.Remainder(fp32InvTwoPi, fp32TwoPi)
	return spline0To2Pi(t)
}

func (f FP32) Cos() FP32 { return f.Add(fp32PiFract2).Sin() }

// Sqrt mirrors FP64.Sqrt's digit-by-digit bisection, scaled to Q15.16's
// narrower range.
func (f FP32) Sqrt() FP32 {
	x := f
	if x.data < 0 {
		x = x.Neg()
	}
	if x.data == 0 {
		return Zero32()
	}

	var result FP32
	bit := FromBits32(int32(1) << 22)
	for bit.data != 0 {
		candidate := result.Add(bit)
		if candidate.Mul(candidate).data <= x.data {
			result = candidate
		}
		bit = bit.Shr(1)
	}
	return result
}
