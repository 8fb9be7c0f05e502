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

import "github.com/ajroetker/go-quantconv/hwy"

// requantizeBatchVec is the vectorized body of RequantizeBatch. The Q31
// saturating-rounding-doubling-high multiply and the rounding right shift
// have no ready-made hwy primitive (they are int32-specific fixed-point
// sequences, not a lane-generic op), so those stay scalar; the
// saturating bias-by-zero-point add is done across whatever int16 lane
// width hwy.Zero[int16]().NumLanes() reports for the running ISA, using the
// same chunk-then-scalar-tail shape the rest of the hwy core uses for
// lane-generic elementwise ops (load full lanes, fall back to scalar for
// the remainder).
func requantizeBatchVec(acc []int32, out []uint8, p QuantizationParams) {
	n := len(acc)
	if len(out) < n {
		panic("qconv: RequantizeBatch: out shorter than acc")
	}

	narrowed := make([]int16, n)
	for i := 0; i < n; i++ {
		multiplied := saturatingRoundingDoublingHighMul(acc[i], p.Multiplier)
		shifted := roundingDivideByPOT(multiplied, p.RightShift)
		narrowed[i] = saturateToInt16(shifted)
	}

	biased := make([]int16, n)
	lanes := hwy.Zero[int16]().NumLanes()
	zp := hwy.Set(int16(p.OutputZeroPoint))
	i := 0
	for ; lanes > 0 && i+lanes <= n; i += lanes {
		v := hwy.Load(narrowed[i : i+lanes])
		v = hwy.SaturatedAdd(v, zp)
		v.Store(biased[i : i+lanes])
	}
	for ; i < n; i++ {
		biased[i] = saturateToInt16(int32(narrowed[i]) + p.OutputZeroPoint)
	}

	for idx, b := range biased {
		v := saturateToUint8(b)
		if v < p.OutputMin {
			v = p.OutputMin
		}
		if v > p.OutputMax {
			v = p.OutputMax
		}
		out[idx] = v
	}
}
