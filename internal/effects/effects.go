package effects

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/orbit2gif/internal/system"
)

// Resampling filters
const (
	FilterLanczos    = "lanczos"
	FilterCatmullRom = "catmullrom"
	FilterBilinear   = "bilinear"
	FilterNearest    = "nearest"
)

// Pipeline normalises rendered stills before encoding: every frame is
// flattened over an opaque background and resized to a Size×Size square,
// so frames with and without alpha come out identical in form.
type Pipeline struct {
	Background color.RGBA
	Size       int
	Filter     string
	Letterbox  bool // keep the aspect ratio and pad with background instead of stretching
}

// NewPipeline validates the options. Background is a hex colour; an empty
// string means black.
func NewPipeline(size int, background, filter string) (*Pipeline, error) {
	if size < 1 {
		return nil, fmt.Errorf("frame size must be positive, got %d", size)
	}
	bg := color.RGBA{A: 255}
	if background != "" {
		var err error
		if bg, err = ParseHexColor(background); err != nil {
			return nil, err
		}
	}
	filter = strings.ToLower(filter)
	switch filter {
	case "":
		filter = FilterLanczos
	case FilterLanczos, FilterCatmullRom, FilterBilinear, FilterNearest:
	default:
		return nil, fmt.Errorf("unknown resampling filter %q", filter)
	}
	return &Pipeline{Background: bg, Size: size, Filter: filter}, nil
}

// Apply returns a new opaque Size×Size frame. Non-square sources are
// stretched unless Letterbox is set.
func (p *Pipeline) Apply(img image.Image) *image.RGBA {
	b := img.Bounds()
	flat := system.GetFilled(b.Dx(), b.Dy(), p.Background)
	defer system.PutImage(flat)
	xdraw.Draw(flat, flat.Bounds(), img, b.Min, xdraw.Over)

	out := image.NewRGBA(image.Rect(0, 0, p.Size, p.Size))
	xdraw.Draw(out, out.Bounds(), image.NewUniform(p.Background), image.Point{}, xdraw.Src)

	fit := out.Bounds()
	if p.Letterbox {
		fit = fitRect(b.Dx(), b.Dy(), p.Size)
	}
	switch p.Filter {
	case FilterCatmullRom:
		xdraw.CatmullRom.Scale(out, fit, flat, flat.Bounds(), xdraw.Src, nil)
	case FilterBilinear:
		xdraw.BiLinear.Scale(out, fit, flat, flat.Bounds(), xdraw.Src, nil)
	case FilterNearest:
		xdraw.NearestNeighbor.Scale(out, fit, flat, flat.Bounds(), xdraw.Src, nil)
	default:
		scaled := resize.Resize(uint(fit.Dx()), uint(fit.Dy()), flat, resize.Lanczos3)
		xdraw.Draw(out, fit, scaled, scaled.Bounds().Min, xdraw.Src)
	}
	return out
}

// fitRect centres a w×h box scaled to fit inside a size×size square.
func fitRect(w, h, size int) image.Rectangle {
	if w <= 0 || h <= 0 {
		return image.Rect(0, 0, size, size)
	}
	fw, fh := size, size
	if w > h {
		fh = max(1, (h*size+w/2)/w)
	} else if h > w {
		fw = max(1, (w*size+h/2)/h)
	}
	x0 := (size - fw) / 2
	y0 := (size - fh) / 2
	return image.Rect(x0, y0, x0+fw, y0+fh)
}

// ParseHexColor parses #RGB or #RRGGBB. The result is always opaque.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
