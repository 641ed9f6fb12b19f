package source

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Source is an ordered sequence of still frames.
type Source interface {
	Count() int
	Path(index int) string
	Dimensions(index int) (width, height int, err error)
	Load(index int) (image.Image, error)
}
