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
	"encoding/binary"

	"github.com/ajroetker/go-quantconv/hwy"
)

// MR and NR are the fixed output tile dimensions of the indirect GEMM
// micro-kernel: 8 input-row slices are consumed per kernel site, and 8
// output channels are produced per packed weight group.
const (
	MR = 8
	NR = 8
)

// PackedWeightStreamSize returns the number of bytes one NR=8 output-channel
// group's packed weight stream occupies for ks kernel sites of kc input
// channels each: 32 bytes of int32 bias, then per site, full 64-byte chunks
// of 8 channels followed by one tail chunk of 8*k bytes if kc isn't a
// multiple of 8.
func PackedWeightStreamSize(kc, ks int) int {
	full := kc / 8
	tail := kc % 8
	perSite := full*64 + 8*tail
	return 32 + ks*perSite
}

// MicroKernel8x8 is the portable (hwy Base-variant) reference
// implementation of the indirect GEMM micro-kernel: its inner reduction
// (accumulateChunk) runs through hwy so it reflects whatever lane width
// the running ISA dispatches to, while the surrounding bias/weight-decode
// and store loops stay plain Go. a must hold at least ks*MR row slices, each of
// length >= kc; w must hold at least PackedWeightStreamSize(kc, ks) bytes;
// c is the output tile's base row, and cStride is the byte distance between
// consecutive output rows.
//
// The full 8x8 set of accumulators is always computed regardless of mr and
// nr (rows/columns beyond the requested tile still participate in the
// reduction, matching the packed weight stream, which always carries 8
// output channels), but only the mr x nr rectangle is written to c: unlike
// the NEON reference this kernel is built against, which reuses a
// pointer-aliasing trick to fold partial-mr stores into the same
// instruction sequence as full stores, this port simply bounds the store
// loops by mr and nr. Go's slices are bounds-checked, so there is no
// equivalent to the original's deliberate 7-byte tail over-read either:
// the tail path below hands accumulateChunk only the kc mod 8 valid
// channels, so it reads exactly that many bytes of each row and that many
// weight lanes, which gives the identical arithmetic result without ever
// indexing outside a row's length.
func MicroKernel8x8(mr, nr, kc, ks int, a []IndirectionRow, w []byte, c []uint8, cStride int, qp QuantizationParams) {
	if mr < 1 || mr > MR {
		panic("qconv: MicroKernel8x8: mr out of range")
	}
	if nr < 1 || nr > NR {
		panic("qconv: MicroKernel8x8: nr out of range")
	}
	if len(a) < ks*MR {
		panic("qconv: MicroKernel8x8: a too short")
	}
	if len(w) < PackedWeightStreamSize(kc, ks) {
		panic("qconv: MicroKernel8x8: w too short")
	}

	var acc [MR][NR]int32
	for col := 0; col < NR; col++ {
		bias := int32(binary.LittleEndian.Uint32(w[col*4:]))
		for row := 0; row < MR; row++ {
			acc[row][col] = bias
		}
	}
	w = w[32:]

	zp := qp.KernelZeroPoint
	for s := 0; s < ks; s++ {
		rows := a[s*MR : s*MR+MR]

		k := 0
		for ; k+8 <= kc; k += 8 {
			accumulateChunk(&acc, rows, w, k, 8, zp)
			w = w[64:]
		}
		if rem := kc - k; rem > 0 {
			accumulateChunk(&acc, rows, w, k, rem, zp)
			w = w[8*rem:]
		}
	}

	for row := 0; row < mr; row++ {
		out := c[row*cStride : row*cStride+nr]
		for col := 0; col < nr; col++ {
			out[col] = Requantize(acc[row][col], qp)
		}
	}
}

// accumulateChunk multiplies lanes channels, starting at channel offset
// chunkStart of each row, against the lanes weight lanes at the head of w
// (8 bytes per lane, one per output channel), adding the result into acc.
// lanes is 8 for a full-width chunk or kc mod 8 for the tail.
//
// The weight byte octet for each lane is widened with hwy.PromoteU8ToU16
// (the widen step spec.md 4.4 names), and the multiply-accumulate itself is
// vectorized over the NR=8 output-channel axis with hwy.Set/Load/Mul/Add:
// broadcast the per-row scalar activation with Set, Load the weight
// lane and the running accumulator, combine, Store back. Mul+Add rather
// than a single MulAdd because this package's MulAdd is restricted to
// floating-point lanes and acc is int32.
func accumulateChunk(acc *[MR][NR]int32, rows []IndirectionRow, w []byte, chunkStart, lanes int, zeroPoint int32) {
	weights := make([]int32, lanes*NR)
	for lane := 0; lane < lanes; lane++ {
		wBase := lane * 8
		widened := hwy.PromoteU8ToU16(hwy.Load(w[wBase : wBase+NR]))
		for col, wb := range widened.Data() {
			weights[lane*NR+col] = int32(wb) - zeroPoint
		}
	}

	colLanes := hwy.Zero[int32]().NumLanes()
	for lane := 0; lane < lanes; lane++ {
		wRow := weights[lane*NR : lane*NR+NR]
		for row := 0; row < MR; row++ {
			in := int32(rows[row][chunkStart+lane])
			inVec := hwy.Set(in)

			col := 0
			for ; col+colLanes <= NR; col += colLanes {
				wVec := hwy.Load(wRow[col : col+colLanes])
				accVec := hwy.Load(acc[row][col : col+colLanes])
				accVec = hwy.Add(accVec, hwy.Mul(inVec, wVec))
				accVec.Store(acc[row][col : col+colLanes])
			}
			for ; col < NR; col++ {
				acc[row][col] += in * wRow[col]
			}
		}
	}
}
