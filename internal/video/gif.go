package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"

	"github.com/ivlev/orbit2gif/internal/effects"
	"github.com/ivlev/orbit2gif/internal/source"
)

// ErrNoFrames is returned when a frame directory holds no stills.
var ErrNoFrames = errors.New("no frames to assemble")

// DefaultDelayMS is the per-frame display time when none is set.
const DefaultDelayMS = 50

// Assembler turns a directory of stills into one looping GIF.
type Assembler struct {
	Pattern  string            // still file pattern, source.DefaultPattern when empty
	Pipeline *effects.Pipeline // frame normalisation
	DelayMS  int               // per-frame display time
	Loop     int               // 0 loops forever, -1 plays once
	Dither   bool              // Floyd-Steinberg error diffusion
	Optimize bool              // write the palette once as the global colour table
}

// Result describes a written artifact.
type Result struct {
	Path   string
	Frames int
	Bytes  int64
}

// NewAssembler returns an assembler with a 384 px square lanczos pipeline
// over black, infinite looping and a global palette.
func NewAssembler() *Assembler {
	p, _ := effects.NewPipeline(384, "#000000", effects.FilterLanczos)
	return &Assembler{
		Pattern:  source.DefaultPattern,
		Pipeline: p,
		DelayMS:  DefaultDelayMS,
		Optimize: true,
	}
}

// Assemble encodes every still in dir, in name order, into out. With no
// stills it returns ErrNoFrames and leaves out untouched.
func (a *Assembler) Assemble(ctx context.Context, dir, out string) (*Result, error) {
	src, err := source.NewFrameSource(dir, a.Pattern)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoFrames, dir)
		}
		return nil, err
	}
	if src.Count() == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}

	pipe := a.Pipeline
	if pipe == nil {
		pipe = NewAssembler().Pipeline
	}

	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, src.Count()),
		Delay:     make([]int, 0, src.Count()),
		LoopCount: a.Loop,
	}
	delay := Centiseconds(a.DelayMS)

	for i := 0; i < src.Count(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := src.Load(i)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		rgba := pipe.Apply(img)
		anim.Image = append(anim.Image, a.quantize(rgba))
		anim.Delay = append(anim.Delay, delay)
	}

	if a.Optimize {
		b := anim.Image[0].Bounds()
		anim.Config = image.Config{
			ColorModel: color.Palette(palette.Plan9),
			Width:      b.Dx(),
			Height:     b.Dy(),
		}
	}

	size, err := writeAtomic(out, anim)
	if err != nil {
		return nil, err
	}
	return &Result{Path: out, Frames: len(anim.Image), Bytes: size}, nil
}

func (a *Assembler) quantize(rgba *image.RGBA) *image.Paletted {
	pimg := image.NewPaletted(rgba.Bounds(), palette.Plan9)
	if a.Dither {
		draw.FloydSteinberg.Draw(pimg, pimg.Bounds(), rgba, image.Point{})
	} else {
		draw.Draw(pimg, pimg.Bounds(), rgba, image.Point{}, draw.Src)
	}
	return pimg
}

// Centiseconds converts a display time to GIF delay units; the result is
// at least 1 since many viewers treat 0 as "as fast as possible".
func Centiseconds(ms int) int {
	cs := (ms + 5) / 10
	if cs < 1 {
		cs = 1
	}
	return cs
}

// writeAtomic encodes into a temporary file next to path and renames it
// into place.
func writeAtomic(path string, anim *gif.GIF) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	if err := gif.EncodeAll(tmp, anim); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("gif encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
