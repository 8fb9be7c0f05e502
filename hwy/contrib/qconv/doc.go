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

// Package qconv implements the core of a quantized (uint8) 2-D convolution
// engine: an indirection planner that rewrites a convolution or pooling
// footprint into a flat array of input-row slices, and an 8x8 GEMM-shaped
// micro-kernel that consumes that indirection buffer directly, without ever
// materializing an im2col matrix.
//
// # Indirection planning
//
// Four planners cover the supported operator kinds:
//
//	qconv.PlanDirectConv(...)      // grouped / regular convolution
//	qconv.PlanDepthwiseConv(...)   // depthwise convolution
//	qconv.PlanTransposedConv(...)  // transposed convolution (deconv)
//	qconv.PlanMaxPool(...)         // max pooling
//
// Each planner fills a caller-owned IndirectionBuffer with, at every
// reachable (output pixel, kernel site) slot, either a slice that aliases
// the corresponding input pixel's channel row or the caller's zero row (a
// row whose bytes equal the input's zero-point).
//
// # Indirect micro-kernel
//
// MicroKernel8x8 consumes MR=8 row slices per kernel site and a packed
// weight stream (see PackedWeightStreamSize) to produce an mr x nr block of
// requantized uint8 output, fusing the indirect load, the int32
// multiply-accumulate, and the fixed-point requantization pipeline
// implemented by Requantize.
//
// This mirrors the fused-dequantize-then-matmul idiom common to the
// hwy core's register-blocked kernels, specialized to indirect
// (pointer-gathered) activations instead of a dense row-major matrix.
package qconv
