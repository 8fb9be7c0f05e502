// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package qconv

import "math"

// QuantizationParams holds the fixed-point parameters of the requantization
// pipeline that turns one int32 accumulator into one uint8 output byte.
type QuantizationParams struct {
	// KernelZeroPoint is subtracted from every weight byte before it
	// contributes to the multiply-accumulate.
	KernelZeroPoint int32
	// Multiplier is a Q31 fixed-point value in (0, 2^31) applied via a
	// saturating rounding doubling high multiply.
	Multiplier int32
	// RightShift is the number of bits of the post-multiply rounding
	// arithmetic right shift, in [0, 31].
	RightShift uint
	// OutputZeroPoint is added back in after the shift.
	OutputZeroPoint int32
	// OutputMin and OutputMax clamp the final byte, with OutputMin <= OutputMax.
	OutputMin uint8
	OutputMax uint8
}

// saturatingRoundingDoublingHighMul returns the rounded high 32 bits of
// 2*a*b, saturating to math.MaxInt32. This is gemmlowp's
// SaturatingRoundingDoublingHighMul / ARM NEON's vqrdmulhq_s32: the one
// input pair that would overflow the doubling, (MinInt32, MinInt32), is the
// only case that saturates.
func saturatingRoundingDoublingHighMul(a, b int32) int32 {
	overflow := a == math.MinInt32 && b == math.MinInt32
	ab := int64(a) * int64(b)
	nudge := int64(1) << 30
	if ab < 0 {
		nudge = 1 - nudge
	}
	result := int32((ab + nudge) / (1 << 31))
	if overflow {
		return math.MaxInt32
	}
	return result
}

// roundingDivideByPOT performs an arithmetic right shift by exponent bits,
// rounding half away from zero. exponent == 0 is a no-op. This is
// gemmlowp's RoundingDivideByPOT, matching NEON's vrshlq_s32 with a
// negative (rightward) shift amount.
func roundingDivideByPOT(x int32, exponent uint) int32 {
	if exponent == 0 {
		return x
	}
	mask := int32((int64(1) << exponent) - 1)
	remainder := x & mask
	threshold := mask >> 1
	if x < 0 {
		threshold++
	}
	result := x >> exponent
	if remainder > threshold {
		result++
	}
	return result
}

func saturateToInt16(x int32) int16 {
	switch {
	case x < math.MinInt16:
		return math.MinInt16
	case x > math.MaxInt16:
		return math.MaxInt16
	default:
		return int16(x)
	}
}

func saturateToUint8(x int16) uint8 {
	switch {
	case x < 0:
		return 0
	case x > math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(x)
	}
}

// Requantize converts one int32 accumulator into one uint8 output byte:
//
//	out = clamp(sat_u8(sat_i16(sat_i16(round_rshift(sat_qrdmulh(acc, M), S)) + Z)), lo, hi)
//
// It is the scalar reference for the whole fixed-point pipeline; every
// vectorized or ISA-specific variant must reproduce it bit-for-bit.
func Requantize(acc int32, p QuantizationParams) uint8 {
	multiplied := saturatingRoundingDoublingHighMul(acc, p.Multiplier)
	shifted := roundingDivideByPOT(multiplied, p.RightShift)
	narrowed := saturateToInt16(shifted)
	biased := saturateToInt16(int32(narrowed) + p.OutputZeroPoint)
	out := saturateToUint8(biased)
	if out < p.OutputMin {
		out = p.OutputMin
	}
	if out > p.OutputMax {
		out = p.OutputMax
	}
	return out
}

// RequantizeBatch requantizes every accumulator in acc into out, which must
// be at least as long as acc, with the same result as Requantize per
// element. Only the output-zero-point saturating add is vectorized with hwy,
// across whatever int16 lane width the running ISA provides, with a scalar
// tail; the Q31 multiply, the rounding shift, the uint8 narrow and the clamp
// run per element.
//
// See requantizeBatchVec in kernel_vec.go for the body.
func RequantizeBatch(acc []int32, out []uint8, p QuantizationParams) {
	requantizeBatchVec(acc, out, p)
}
