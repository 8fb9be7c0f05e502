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

import "math/bits"

// Doz returns a-b saturated to zero: a-b when a >= b, otherwise 0.
// It is used by the max-pool planner to fold the "subtract padding, then
// clamp to zero" replication-pad arithmetic into a single call.
func Doz(a, b uint32) uint32 {
	if a < b {
		return 0
	}
	return a - b
}

// Divisor precomputes a fixed-point reciprocal of a uint32 divisor so that
// repeated division by the same value (the output width, across every
// output pixel in a plan) can be done with a multiply and a shift instead
// of a hardware division instruction. It plays the same role as fxdiv's
// divisor type in the original C implementation this package is based on.
type Divisor struct {
	d uint32
	m uint64
}

// NewDivisor builds a Divisor for d. d must be non-zero; the planners that
// use it only ever divide by an output width, which is always >= 1.
func NewDivisor(d uint32) Divisor {
	if d == 0 {
		panic("qconv: NewDivisor: divisor must be non-zero")
	}
	if d == 1 {
		return Divisor{d: 1}
	}
	// m = floor(2^64/d) + 1. bits.Div64 computes (hi:lo)/d with hi < d
	// required for the quotient to fit in 64 bits; hi=1, lo=0 represents
	// the dividend 2^64, and d > 1 guarantees hi < d.
	q, _ := bits.Div64(1, 0, uint64(d))
	return Divisor{d: d, m: q + 1}
}

// DivMod returns (x/d, x%d) for the divisor this Divisor was built from.
// It is exact for every x < 2^32, which covers every coordinate the
// planners compute (output pixel indices derived from int32-range shapes).
func (dv Divisor) DivMod(x uint32) (quotient, remainder uint32) {
	if dv.d == 1 {
		return x, 0
	}
	hi, _ := bits.Mul64(dv.m, uint64(x))
	quotient = uint32(hi)
	remainder = x - quotient*dv.d
	return quotient, remainder
}

// ceilDiv returns ceil(a/b) for non-negative a and positive b.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
