package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestFrameSourceOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame_010.png", "frame_002.png", "frame_000.png", "notes.txt", "preview.png"} {
		writePNG(t, filepath.Join(dir, name), 4, 3)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "frame_999.png.d"), 0755))

	src, err := NewFrameSource(dir, "")
	require.NoError(t, err)

	require.Equal(t, 3, src.Count())
	assert.Equal(t, []string{
		filepath.Join(dir, "frame_000.png"),
		filepath.Join(dir, "frame_002.png"),
		filepath.Join(dir, "frame_010.png"),
	}, src.Paths())

	w, h, err := src.Dimensions(1)
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)

	img, err := src.Load(0)
	require.NoError(t, err)
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestFrameSourceEmptyAndMissing(t *testing.T) {
	src, err := NewFrameSource(t.TempDir(), DefaultPattern)
	require.NoError(t, err)
	assert.Zero(t, src.Count())

	_, err = NewFrameSource(filepath.Join(t.TempDir(), "nope"), DefaultPattern)
	assert.Error(t, err)

	_, err = NewFrameSource(t.TempDir(), "frame_[")
	assert.Error(t, err)
}

func TestFrameSourceDecodesBMP(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "frame_0001.bmp"))
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())

	src, err := NewFrameSource(dir, "frame_*.bmp")
	require.NoError(t, err)
	require.Equal(t, 1, src.Count())

	_, err = src.Load(0)
	assert.NoError(t, err)
}

func TestFrameSourceCorruptFrame(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_000.png"), []byte("not a png"), 0644))

	src, err := NewFrameSource(dir, DefaultPattern)
	require.NoError(t, err)
	_, err = src.Load(0)
	assert.ErrorContains(t, err, "frame_000.png")
}
