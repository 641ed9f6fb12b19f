// Package worker is the built-in external renderer. It runs as its own
// process so that the orchestrator treats it exactly like any other
// offline renderer.
package worker

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fogleman/fauxgl"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/orbit2gif/internal/director"
	"github.com/ivlev/orbit2gif/internal/scene"
)

// Options are the parsed worker arguments.
type Options struct {
	Scene      string
	Plan       string
	OutputDir  string
	Resolution int
	Count      int // orbit only, 0 when absent
}

// ParseArgs reads
//
//	--background <scene> --plan <plan> -- <out> <res> [count]
func ParseArgs(args []string) (*Options, error) {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := &Options{}
	fs.StringVar(&opts.Scene, "background", "", "scene file")
	fs.StringVar(&opts.Plan, "plan", "", "frame plan file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.Scene == "" || opts.Plan == "" {
		return nil, errors.New("--background and --plan are required")
	}

	pos := fs.Args()
	if len(pos) < 2 || len(pos) > 3 {
		return nil, fmt.Errorf("expected <out> <res> [count] after --, got %q", pos)
	}
	opts.OutputDir = pos[0]
	res, err := strconv.Atoi(pos[1])
	if err != nil || res < 1 {
		return nil, fmt.Errorf("invalid resolution %q", pos[1])
	}
	opts.Resolution = res
	if len(pos) == 3 {
		n, err := strconv.Atoi(pos[2])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid frame count %q", pos[2])
		}
		opts.Count = n
	}
	return opts, nil
}

// Run renders every plan entry. A frame that fails is reported and
// skipped; only setup problems are returned as errors.
func Run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := ParseArgs(args)
	if err != nil {
		return err
	}

	sc, err := scene.Load(opts.Scene)
	if err != nil {
		return err
	}
	plan, err := director.ReadPlan(opts.Plan)
	if err != nil {
		return fmt.Errorf("plan %s: %w", opts.Plan, err)
	}
	if plan.Mode == director.ModeOrbit && opts.Count != plan.Len() {
		return fmt.Errorf("frame count %d does not match %d planned shots", opts.Count, plan.Len())
	}
	if plan.Mode == director.ModePlayback && sc.Camera == nil {
		return scene.ErrNoCamera
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return err
	}

	r := NewRasterizer(opts.Resolution, sc.Background)

	// orbit shots share one scene state
	var still *scene.Geometry
	var stillLight r3.Vec
	if plan.Mode == director.ModeOrbit {
		still = sc.Geometry(plan.SceneFrame)
		stillLight = keyLight(sc, plan.SceneFrame)
	}

	fmt.Fprintf(stdout, "[*] Рендер %s: %d кадров, %dx%d\n", plan.Mode, plan.Len(), opts.Resolution, opts.Resolution)
	rendered := 0
	for _, e := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := plan.FileName(e)

		var (
			pose  scene.Pose
			geom  = still
			light = stillLight
		)
		if plan.Mode == director.ModeOrbit {
			pose = e.Shot.Pose()
		} else {
			if pose, err = sc.CameraPose(e.Frame); err != nil {
				return err
			}
			geom = sc.Geometry(e.Frame)
			light = keyLight(sc, e.Frame)
		}

		img := r.Render(pose, geom, light)
		if err := fauxgl.SavePNG(filepath.Join(opts.OutputDir, name), img); err != nil {
			fmt.Fprintf(stdout, "[!] %s: %v\n", name, err)
			continue
		}
		rendered++
		fmt.Fprintf(stdout, "[>] Ready: %d/%d (%s)\n", e.Index+1, plan.Len(), name)
	}
	fmt.Fprintf(stdout, "[*] Готово: %d/%d кадров\n", rendered, plan.Len())
	return nil
}

func keyLight(s *scene.Scene, frame int) r3.Vec {
	if lights := s.Lights(frame); len(lights) > 0 {
		return lights[0]
	}
	return r3.Vec{}
}
