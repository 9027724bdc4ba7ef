package sampler

import (
	"image"
	"image/color"
	"testing"
)

func TestFlatSampler(t *testing.T) {
	s := Flat(0.25)
	if v := s.SampleChannel(0.1, 0.9); v != 0.25 {
		t.Errorf("Flat(0.25) = %v, want 0.25", v)
	}
}

func makeGradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Red ramps left to right, green top to bottom.
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / (w - 1)),
				G: uint8(y * 255 / (h - 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func TestImageSamplerCorners(t *testing.T) {
	s := FromImage(makeGradientImage(16, 16), ChannelR, 0)
	cases := []struct {
		u, v, want float64
	}{
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, 0},
		{1, 1, 1},
	}
	for _, c := range cases {
		got := s.SampleChannel(c.u, c.v)
		if diff := got - c.want; diff > 0.01 || diff < -0.01 {
			t.Errorf("R at (%v,%v) = %v, want ~%v", c.u, c.v, got, c.want)
		}
	}
}

func TestImageSamplerChannelSelect(t *testing.T) {
	img := makeGradientImage(8, 8)
	g := FromImage(img, ChannelG, 0)
	if v := g.SampleChannel(0.5, 0); v > 0.05 {
		t.Errorf("G at top = %v, want ~0", v)
	}
	if v := g.SampleChannel(0.5, 1); v < 0.95 {
		t.Errorf("G at bottom = %v, want ~1", v)
	}
	b := FromImage(img, ChannelB, 0)
	if v := b.SampleChannel(0.3, 0.7); v < 0.45 || v > 0.55 {
		t.Errorf("constant B channel = %v, want ~0.5", v)
	}
}

func TestImageSamplerClampsUV(t *testing.T) {
	s := FromImage(makeGradientImage(8, 8), ChannelR, 0)
	if v := s.SampleChannel(-3, 0.5); v != s.SampleChannel(0, 0.5) {
		t.Errorf("u below 0 not clamped: %v", v)
	}
	if v := s.SampleChannel(7, 0.5); v != s.SampleChannel(1, 0.5) {
		t.Errorf("u above 1 not clamped: %v", v)
	}
}

func TestImageSamplerDownsample(t *testing.T) {
	s := FromImage(makeGradientImage(64, 64), ChannelR, 16)
	if s.w > 16 || s.h > 16 {
		t.Fatalf("grid %dx%d exceeds maxDim 16", s.w, s.h)
	}
	// The ramp should survive resampling.
	lo := s.SampleChannel(0.05, 0.5)
	hi := s.SampleChannel(0.95, 0.5)
	if hi-lo < 0.5 {
		t.Errorf("ramp flattened by resample: lo=%v hi=%v", lo, hi)
	}
}
