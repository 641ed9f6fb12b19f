package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
)

// DefaultPattern matches the stills written by the renderer.
const DefaultPattern = "frame_*.png"

// FrameSource lists the stills of one render batch in lexicographic order.
type FrameSource struct {
	dir   string
	paths []string
}

// NewFrameSource lists files in dir whose names match pattern. A missing
// directory is an error, an empty listing is not.
func NewFrameSource(dir, pattern string) (*FrameSource, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("frame pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	return &FrameSource{dir: dir, paths: paths}, nil
}

func (s *FrameSource) Count() int {
	return len(s.paths)
}

func (s *FrameSource) Path(index int) string {
	return s.paths[index]
}

// Paths returns a copy of the ordered listing.
func (s *FrameSource) Paths() []string {
	return append([]string(nil), s.paths...)
}

func (s *FrameSource) Dimensions(index int) (int, int, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", filepath.Base(s.paths[index]), err)
	}
	return cfg.Width, cfg.Height, nil
}

func (s *FrameSource) Load(index int) (image.Image, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(s.paths[index]), err)
	}
	return img, nil
}
