// Package sampler exposes scalar field lookups over normalized UV
// coordinates. Height maps, density masks, and slope masks all reach the
// engine through the same one-method contract, so tests can substitute
// closed-form fields for image data.
package sampler

import (
	"image"

	"golang.org/x/image/draw"
)

// Channel selects which component of an image feeds the sample.
type Channel int

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
	ChannelA
)

// Sampler answers a scalar in [0,1] at normalized coordinates. U and V
// outside [0,1] are clamped by implementations.
type Sampler interface {
	SampleChannel(u, v float64) float64
}

// Flat is a constant-valued sampler, the fallback when no map is loaded.
type Flat float64

func (f Flat) SampleChannel(u, v float64) float64 { return float64(f) }

// Func adapts a plain function to the Sampler interface.
type Func func(u, v float64) float64

func (fn Func) SampleChannel(u, v float64) float64 { return fn(u, v) }

// ImageSampler samples one channel of a decoded image with bilinear
// filtering. Construction takes already-resolved pixel data; decoding and
// fetching are the caller's problem.
type ImageSampler struct {
	w, h   int
	values []float64 // row-major, one scalar per pixel
}

// FromImage extracts the given channel of img into a sampling grid.
// maxDim caps the grid edge; larger images are resampled down with
// bilinear filtering. maxDim <= 0 keeps the source resolution.
func FromImage(img image.Image, ch Channel, maxDim int) *ImageSampler {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim > 0 && (w > maxDim || h > maxDim) {
		sw, sh := w, h
		if sw >= sh {
			sh = sh * maxDim / sw
			sw = maxDim
		} else {
			sw = sw * maxDim / sh
			sh = maxDim
		}
		if sw < 1 {
			sw = 1
		}
		if sh < 1 {
			sh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, sw, sh))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
		b = dst.Bounds()
		w, h = sw, sh
	}

	s := &ImageSampler{w: w, h: h, values: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			var v uint32
			switch ch {
			case ChannelG:
				v = g
			case ChannelB:
				v = bl
			case ChannelA:
				v = a
			default:
				v = r
			}
			s.values[y*w+x] = float64(v) / 65535.0
		}
	}
	return s
}

// SampleChannel returns the bilinearly filtered value at (u,v), clamped
// to the image edges.
func (s *ImageSampler) SampleChannel(u, v float64) float64 {
	if s.w == 0 || s.h == 0 {
		return 0
	}
	u = clamp01(u)
	v = clamp01(v)

	fx := u * float64(s.w-1)
	fy := v * float64(s.h-1)
	x0 := int(fx)
	y0 := int(fy)
	x1 := min(x0+1, s.w-1)
	y1 := min(y0+1, s.h-1)
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	v00 := s.values[y0*s.w+x0]
	v10 := s.values[y0*s.w+x1]
	v01 := s.values[y1*s.w+x0]
	v11 := s.values[y1*s.w+x1]

	top := v00 + (v10-v00)*tx
	bot := v01 + (v11-v01)*tx
	return top + (bot-top)*ty
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
