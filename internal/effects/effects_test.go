package effects

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestMixedAlphaFramesComeOutUniform(t *testing.T) {
	p, err := NewPipeline(32, "#000000", "")
	require.NoError(t, err)

	frames := []image.Image{
		solid(64, 64, color.NRGBA{R: 200, G: 100, B: 50, A: 255}),
		solid(64, 64, color.NRGBA{R: 200, G: 100, B: 50, A: 0}),
		solid(64, 64, color.NRGBA{R: 200, G: 100, B: 50, A: 128}),
		image.NewGray(image.Rect(0, 0, 16, 16)),
	}

	for i, f := range frames {
		out := p.Apply(f)
		assert.Equal(t, image.Rect(0, 0, 32, 32), out.Bounds(), "frame %d", i)
		assert.True(t, out.Opaque(), "frame %d should be opaque", i)
	}

	// fully transparent pixels collapse to the background
	clear := p.Apply(frames[1])
	assert.Equal(t, color.RGBA{A: 255}, clear.RGBAAt(16, 16))

	// half transparent pixels blend with it
	half := p.Apply(frames[2]).RGBAAt(16, 16)
	assert.InDelta(t, 100, int(half.R), 3)
}

func TestFiltersKeepSolidColour(t *testing.T) {
	want := color.RGBA{R: 10, G: 200, B: 30, A: 255}
	for _, f := range []string{FilterLanczos, FilterCatmullRom, FilterBilinear, FilterNearest} {
		t.Run(f, func(t *testing.T) {
			p, err := NewPipeline(24, "", f)
			require.NoError(t, err)
			got := p.Apply(solid(100, 100, want)).RGBAAt(12, 12)
			assert.InDelta(t, int(want.R), int(got.R), 2)
			assert.InDelta(t, int(want.G), int(got.G), 2)
			assert.InDelta(t, int(want.B), int(got.B), 2)
		})
	}
}

func TestNonSquareIsStretched(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for _, f := range []string{FilterLanczos, FilterNearest} {
		t.Run(f, func(t *testing.T) {
			p, err := NewPipeline(40, "#000000", f)
			require.NoError(t, err)

			out := p.Apply(solid(200, 100, white))
			require.Equal(t, image.Rect(0, 0, 40, 40), out.Bounds())
			for _, pt := range []image.Point{{0, 0}, {20, 39}, {39, 20}} {
				c := out.RGBAAt(pt.X, pt.Y)
				assert.InDelta(t, 255, int(c.R), 2, "%v should be content, not background", pt)
				assert.InDelta(t, 255, int(c.B), 2, "%v should be content, not background", pt)
			}
		})
	}
}

func TestNonSquareIsLetterboxed(t *testing.T) {
	p, err := NewPipeline(40, "#ffffff", FilterNearest)
	require.NoError(t, err)
	p.Letterbox = true

	out := p.Apply(solid(80, 40, color.NRGBA{A: 255}))

	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(20, 2), "top margin is background")
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(20, 20), "content is centred")
}

func TestFitRect(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 100, 100), fitRect(50, 50, 100))
	assert.Equal(t, image.Rect(0, 25, 100, 75), fitRect(200, 100, 100))
	assert.Equal(t, image.Rect(25, 0, 75, 100), fitRect(100, 200, 100))
	assert.Equal(t, 1, fitRect(1000, 1, 10).Dy())
}

func TestNewPipelineErrors(t *testing.T) {
	_, err := NewPipeline(0, "", "")
	assert.Error(t, err)
	_, err = NewPipeline(10, "#zzzzzz", "")
	assert.Error(t, err)
	_, err = NewPipeline(10, "", "bicubic-ish")
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#468966")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x46, G: 0x89, B: 0x66, A: 255}, c)

	c, err = ParseHexColor("fa0")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xaa, B: 0x00, A: 255}, c)
}
