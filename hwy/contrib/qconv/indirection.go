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

// Tensor is a flat NHWC-ish activation buffer: Data holds every pixel of
// every image back to back, and PixelStride is the byte distance between
// the start of one pixel and the start of the next along the width
// dimension (normally groups*channels-per-group).
type Tensor struct {
	Data        []uint8
	PixelStride int
}

func (t Tensor) pixelOffset(n, height, width, y, x int) int {
	return n*height*width*t.PixelStride + (y*width+x)*t.PixelStride
}

// Geometry is the read-only shape/stride descriptor shared by all four
// planners, mirroring the operator descriptor of the surrounding system:
// batch size, input/output extents, kernel shape, stride, dilation, top/left
// padding, and the grouping and per-group channel count used to offset into
// a pixel's channel-0 byte.
type Geometry struct {
	BatchSize                 int
	InputHeight, InputWidth   int
	OutputHeight, OutputWidth int
	KernelHeight, KernelWidth int
	StrideHeight, StrideWidth int
	DilationHeight, DilationWidth int
	PaddingTop, PaddingLeft   int
	Groups                    int
	InputChannels             int // per group
}

// IndirectionRow is one slot of an IndirectionBuffer: either a slice
// aliasing an input pixel's channel row, or the caller's zero row.
type IndirectionRow = []uint8

// IndirectionBuffer is the flat array the planners populate: at index i it
// holds either a slice aliasing the corresponding input pixel's channel row
// (length == Geometry.InputChannels) or the caller-supplied zero row. It
// replaces the raw address array of the original C implementation with Go's
// native fat-pointer slices; IsZeroRow reconstructs the "is this the zero
// sentinel" test that raw pointer identity gave for free in C.
type IndirectionBuffer [][]uint8

// IsZeroRow reports whether row is the same underlying zero row that was
// passed to a planner as its zero argument, as opposed to a row sliced out
// of an input Tensor. It compares slice identity (data pointer and length),
// not contents, matching the original's pointer-equality zero-sentinel
// check.
func IsZeroRow(row, zero []uint8) bool {
	if len(row) != len(zero) {
		return false
	}
	if len(row) == 0 {
		return len(zero) == 0
	}
	return &row[0] == &zero[0]
}

// DirectConvSize returns the number of IndirectionBuffer slots a
// PlanDirectConv call needs for the given geometry and output tile size mr,
// along with the tiled output size T used internally (T = mr *
// ceil(OutputHeight*OutputWidth / mr)).
func DirectConvSize(geo Geometry, mr int) (slots, tiledOutputSize int) {
	tiledOutputSize = mr * ceilDiv(geo.OutputHeight*geo.OutputWidth, mr)
	slots = geo.Groups * geo.BatchSize * tiledOutputSize * geo.KernelHeight * geo.KernelWidth
	return slots, tiledOutputSize
}

// PlanDirectConv fills buf with the indirection buffer for a (possibly
// grouped) direct convolution, per the tiling and padding-test formulas of
// the direct convolution plan: outputs are covered in tiles of mr, with the
// final partial tile clamped to replicate the last real output pixel (the
// "tile padding trick") so the micro-kernel never special-cases the tail.
//
// buf must have length >= the slots returned by DirectConvSize(geo, mr).
// zero must have length >= geo.InputChannels.
func PlanDirectConv(buf IndirectionBuffer, geo Geometry, input Tensor, zero []uint8, mr int) {
	slots, tiled := DirectConvSize(geo, mr)
	if len(buf) < slots {
		panic("qconv: PlanDirectConv: buf too short")
	}
	outSize := geo.OutputHeight * geo.OutputWidth
	kH, kW := geo.KernelHeight, geo.KernelWidth
	widthDivisor := NewDivisor(uint32(geo.OutputWidth))

	for g := 0; g < geo.Groups; g++ {
		for n := 0; n < geo.BatchSize; n++ {
			for t0 := 0; t0 < tiled; t0 += mr {
				for delta := 0; delta < mr; delta++ {
					o := t0 + delta
					if o > outSize-1 {
						o = outSize - 1
					}
					oyu, oxu := widthDivisor.DivMod(uint32(o))
					oy, ox := int(oyu), int(oxu)
					for ky := 0; ky < kH; ky++ {
						for kx := 0; kx < kW; kx++ {
							idx := ((g*geo.BatchSize+n)*tiled+t0)*kH*kW + (ky*kW+kx)*mr + delta
							iy := uint32(oy*geo.StrideHeight + ky*geo.DilationHeight - geo.PaddingTop)
							ix := uint32(ox*geo.StrideWidth + kx*geo.DilationWidth - geo.PaddingLeft)
							if iy < uint32(geo.InputHeight) && ix < uint32(geo.InputWidth) {
								off := input.pixelOffset(n, geo.InputHeight, geo.InputWidth, int(iy), int(ix)) + g*geo.InputChannels
								buf[idx] = input.Data[off : off+geo.InputChannels]
							} else {
								buf[idx] = zero
							}
						}
					}
				}
			}
		}
	}
}

// PlanDepthwiseConv fills buf for a depthwise convolution, where every
// channel has its own kernel and there is no group*InputChannels offset
// into the pixel. stepHeight and stepWidth are caller-chosen strides that
// must match how the caller will walk buf during kernel evaluation; note
// the (kx, ky) traversal order is swapped relative to PlanDirectConv
// because the depthwise micro-kernel steps fastest over ky.
//
// batchStart offsets which image of input this call plans against, so a
// single Tensor can be planned in batch slices: geo.BatchSize is the number
// of images this call plans, not the Tensor's total batch size, and buf
// indices run 0..geo.BatchSize regardless of batchStart while the images
// read from input are batchStart..batchStart+geo.BatchSize.
func PlanDepthwiseConv(buf IndirectionBuffer, geo Geometry, input Tensor, zero []uint8, batchStart, stepHeight, stepWidth int) {
	kH, kW := geo.KernelHeight, geo.KernelWidth
	for n := 0; n < geo.BatchSize; n++ {
		for oy := 0; oy < geo.OutputHeight; oy++ {
			for ky := 0; ky < kH; ky++ {
				rowBase := (n*geo.OutputHeight+oy)*stepHeight
				for ox := 0; ox < geo.OutputWidth; ox++ {
					for kx := 0; kx < kW; kx++ {
						idx := rowBase + ox*stepWidth*kH + kx*kH + ky
						iy := uint32(oy*geo.StrideHeight + ky*geo.DilationHeight - geo.PaddingTop)
						ix := uint32(ox*geo.StrideWidth + kx*geo.DilationWidth - geo.PaddingLeft)
						if iy < uint32(geo.InputHeight) && ix < uint32(geo.InputWidth) {
							off := input.pixelOffset(batchStart+n, geo.InputHeight, geo.InputWidth, int(iy), int(ix))
							buf[idx] = input.Data[off : off+geo.InputChannels]
						} else {
							buf[idx] = zero
						}
					}
				}
			}
		}
	}
}

// PlanTransposedConv fills buf for a transposed (deconv) convolution, using
// the same outer tiling as PlanDirectConv but inverting the input
// coordinate computation: an entry is valid only when the output position
// is exactly reachable from kernel tap (ky, kx) by a stride-sH/sW scatter
// from some in-bounds input pixel.
func PlanTransposedConv(buf IndirectionBuffer, geo Geometry, input Tensor, zero []uint8, mr int) {
	slots, tiled := DirectConvSize(geo, mr)
	if len(buf) < slots {
		panic("qconv: PlanTransposedConv: buf too short")
	}
	outSize := geo.OutputHeight * geo.OutputWidth
	kH, kW := geo.KernelHeight, geo.KernelWidth
	widthDivisor := NewDivisor(uint32(geo.OutputWidth))

	for g := 0; g < geo.Groups; g++ {
		for n := 0; n < geo.BatchSize; n++ {
			for t0 := 0; t0 < tiled; t0 += mr {
				for delta := 0; delta < mr; delta++ {
					o := t0 + delta
					if o > outSize-1 {
						o = outSize - 1
					}
					oyu, oxu := widthDivisor.DivMod(uint32(o))
					oy, ox := int(oyu), int(oxu)
					for ky := 0; ky < kH; ky++ {
						for kx := 0; kx < kW; kx++ {
							idx := ((g*geo.BatchSize+n)*tiled+t0)*kH*kW + (ky*kW+kx)*mr + delta

							y := uint32(oy + geo.PaddingTop - ky*geo.DilationHeight)
							iy := y / uint32(geo.StrideHeight)
							x := uint32(ox + geo.PaddingLeft - kx*geo.DilationWidth)
							ix := x / uint32(geo.StrideWidth)

							valid := iy*uint32(geo.StrideHeight) == y && ix*uint32(geo.StrideWidth) == x &&
								iy < uint32(geo.InputHeight) && ix < uint32(geo.InputWidth)
							if valid {
								off := input.pixelOffset(n, geo.InputHeight, geo.InputWidth, int(iy), int(ix)) + g*geo.InputChannels
								buf[idx] = input.Data[off : off+geo.InputChannels]
							} else {
								buf[idx] = zero
							}
						}
					}
				}
			}
		}
	}
}

// PlanMaxPool fills buf for a max-pool, using replication-pad semantics: out
// of bounds kernel sites are clamped to the nearest in-bounds input pixel
// rather than replaced by a zero row, so unlike the other three planners
// PlanMaxPool never writes a zero entry. Layout and the batchStart/BatchSize
// convention match PlanDepthwiseConv.
func PlanMaxPool(buf IndirectionBuffer, geo Geometry, input Tensor, batchStart, stepHeight, stepWidth int) {
	kH, kW := geo.KernelHeight, geo.KernelWidth
	for n := 0; n < geo.BatchSize; n++ {
		for oy := 0; oy < geo.OutputHeight; oy++ {
			for ky := 0; ky < kH; ky++ {
				rowBase := (n*geo.OutputHeight+oy)*stepHeight
				for ox := 0; ox < geo.OutputWidth; ox++ {
					for kx := 0; kx < kW; kx++ {
						idx := rowBase + ox*stepWidth*kH + kx*kH + ky
						iy := clampInt(int(Doz(uint32(oy*geo.StrideHeight+ky*geo.DilationHeight), uint32(geo.PaddingTop))), 0, geo.InputHeight-1)
						ix := clampInt(int(Doz(uint32(ox*geo.StrideWidth+kx*geo.DilationWidth), uint32(geo.PaddingLeft))), 0, geo.InputWidth-1)
						off := input.pixelOffset(batchStart+n, geo.InputHeight, geo.InputWidth, iy, ix)
						buf[idx] = input.Data[off : off+geo.InputChannels]
					}
				}
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
