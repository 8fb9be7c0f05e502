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

import (
	"math"
	"testing"
)

// referenceRequantize recomputes the pipeline with the widest available Go
// integer types, independent of the production helpers, to cross-check
// Requantize against a second, deliberately naive derivation.
func referenceRequantize(acc int32, p QuantizationParams) uint8 {
	var m int64
	if acc == math.MinInt32 && p.Multiplier == math.MinInt32 {
		m = math.MaxInt32
	} else {
		// vqrdmulh: (2*a*b + 2^31) >> 32.
		prod := int64(acc) * int64(p.Multiplier)
		m = (2*prod + (1 << 31)) >> 32
	}

	var s int64
	if p.RightShift == 0 {
		s = m
	} else {
		mask := int64(1)<<p.RightShift - 1
		remainder := m & mask
		threshold := mask >> 1
		if m < 0 {
			threshold++
		}
		s = m >> p.RightShift
		if remainder > threshold {
			s++
		}
	}

	narrow16 := func(x int64) int64 {
		if x < math.MinInt16 {
			return math.MinInt16
		}
		if x > math.MaxInt16 {
			return math.MaxInt16
		}
		return x
	}

	n1 := narrow16(s)
	biased := narrow16(n1 + int64(p.OutputZeroPoint))

	var out int64
	switch {
	case biased < 0:
		out = 0
	case biased > 255:
		out = 255
	default:
		out = biased
	}
	if out < int64(p.OutputMin) {
		out = int64(p.OutputMin)
	}
	if out > int64(p.OutputMax) {
		out = int64(p.OutputMax)
	}
	return uint8(out)
}

func TestRequantizeMatchesReference(t *testing.T) {
	accs := []int32{math.MinInt32, -(1 << 30), -1, 0, 1, 1 << 30, math.MaxInt32}
	shifts := []uint{0, 7, 15, 31}
	multipliers := []int32{1, 1 << 29, math.MaxInt32}

	p := QuantizationParams{OutputZeroPoint: 0, OutputMin: 0, OutputMax: 255}
	for _, acc := range accs {
		for _, shift := range shifts {
			for _, mult := range multipliers {
				p.Multiplier = mult
				p.RightShift = shift
				got := Requantize(acc, p)
				want := referenceRequantize(acc, p)
				if got != want {
					t.Errorf("Requantize(%d, mult=%d, shift=%d) = %d, want %d", acc, mult, shift, got, want)
				}
			}
		}
	}
}

func TestRequantizeOverflowSaturates(t *testing.T) {
	p := QuantizationParams{Multiplier: math.MinInt32, RightShift: 0, OutputMin: 0, OutputMax: 255}
	got := saturatingRoundingDoublingHighMul(math.MinInt32, math.MinInt32)
	if got != math.MaxInt32 {
		t.Fatalf("saturatingRoundingDoublingHighMul overflow case = %d, want MaxInt32", got)
	}
	_ = p
}

func TestRequantizeClampRespectsOutputRange(t *testing.T) {
	p := QuantizationParams{Multiplier: 1 << 30, RightShift: 0, OutputZeroPoint: 0, OutputMin: 10, OutputMax: 20}
	if got := Requantize(0, p); got != 10 {
		t.Errorf("Requantize clamp to min: got %d, want 10", got)
	}
	p.OutputZeroPoint = 1000
	if got := Requantize(0, p); got != 20 {
		t.Errorf("Requantize clamp to max: got %d, want 20", got)
	}
}

// TestRequantizeScenario1 is the worked 1x1x1x8 example from the design:
// acc = 3*5*8 = 120, multiplier = 1<<30 (== 0.5 in Q31), right_shift = 0.
func TestRequantizeScenario1(t *testing.T) {
	p := QuantizationParams{
		Multiplier:      1 << 30,
		RightShift:      0,
		OutputZeroPoint: 0,
		OutputMin:       0,
		OutputMax:       255,
	}
	acc := int32(3 * 5 * 8)
	if got := Requantize(acc, p); got != 60 {
		t.Errorf("Requantize(120) = %d, want 60", got)
	}
}

func TestRequantizeBatchMatchesScalar(t *testing.T) {
	p := QuantizationParams{Multiplier: 1 << 28, RightShift: 10, OutputZeroPoint: 5, OutputMin: 0, OutputMax: 250}
	accs := make([]int32, 131)
	for i := range accs {
		accs[i] = int32(i*104729 - 1<<20)
	}
	want := make([]uint8, len(accs))
	for i, a := range accs {
		want[i] = Requantize(a, p)
	}
	got := make([]uint8, len(accs))
	RequantizeBatch(accs, got, p)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RequantizeBatch[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
