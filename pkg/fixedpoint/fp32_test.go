package fixedpoint

import (
	"math"
	"testing"
)

func TestFP32ConversionRoundTrip(t *testing.T) {
	for k := int32(-32768); k <= 32767; k++ {
		val := FromInt32_32(k)
		if val.AsInt32() != k {
			t.Fatalf("integer round trip failed for k=%d, got %d", k, val.AsInt32())
		}
	}
}

func TestFP32FastMod(t *testing.T) {
	for exp := uint8(1); exp <= 20; exp++ {
		modulus := int32(1) << exp
		for k := int32(0); k < 2000; k++ {
			want := k % modulus
			got := FromInt32_32(k).FastMod32(exp).AsInt32()
			if got != want {
				t.Fatalf("fast_mod(%d) mismatch at k=%d: want %d got %d", exp, k, want, got)
			}
		}
	}
}

func TestFP32SinWithinTolerance(t *testing.T) {
	const numSteps = 512
	const tolerance = 0.03

	deltaF64 := 2.0 * math.Pi / numSteps
	deltaFP32 := FromFloat64_32(deltaF64)

	tF64 := 0.0
	tFP32 := Zero32()

	for k := 0; k < numSteps; k++ {
		sF64 := math.Sin(tF64)
		sFP32 := tFP32.Sin()
		distance := math.Abs(sF64 - float64(sFP32.AsFloat32()))
		if distance >= tolerance {
			t.Fatalf("k=%d distance=%v", k, distance)
		}
		tF64 += deltaF64
		tFP32 = tFP32.Add(deltaFP32)
	}
}

func TestFP32Sqrt(t *testing.T) {
	got := FromFloat64_32(9).Sqrt().AsFloat32()
	if math.Abs(float64(got)-3) > 0.01 {
		t.Fatalf("sqrt(9) = %v, want ~3", got)
	}
}
