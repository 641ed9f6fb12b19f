package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/orbit2gif/internal/analyzer"
	"github.com/ivlev/orbit2gif/internal/config"
	"github.com/ivlev/orbit2gif/internal/director"
	"github.com/ivlev/orbit2gif/internal/effects"
	"github.com/ivlev/orbit2gif/internal/renderer"
	"github.com/ivlev/orbit2gif/internal/scene"
	"github.com/ivlev/orbit2gif/internal/source"
	"github.com/ivlev/orbit2gif/internal/video"
)

// Output layout inside a run directory.
const (
	RotationFrames  = "rotation_frames"
	AnimationFrames = "animation_frames"
	GIFDir          = "gifs"
)

// Project is one scene taken through the pipeline.
type Project struct {
	Config    *config.Config
	ScenePath string
	Scene     *scene.Scene
	Estimator analyzer.Estimator
	Director  *director.Director
	Renderer  *renderer.Orchestrator
	Assembler *video.Assembler
	Encoder   *video.FFmpegEncoder // MP4 export, nil when disabled

	RunID  string
	RunDir string
	Out    io.Writer
}

// NewProject loads the scene and builds every stage from cfg.
func NewProject(cfg *config.Config, scenePath string) (*Project, error) {
	sc, err := scene.Load(scenePath)
	if err != nil {
		return nil, err
	}

	est, err := newEstimator(cfg.Depth)
	if err != nil {
		return nil, err
	}

	dir := director.NewDirector()
	dir.MinRadius = cfg.Orbit.MinRadius
	dir.MaxRadius = cfg.Orbit.MaxRadius

	var backend renderer.Backend
	switch cfg.Render.Backend {
	case config.BackendBlender:
		backend = renderer.NewBlenderBackend(cfg.Render.Program, cfg.Render.BlendFile)
	default:
		backend = renderer.NewBuiltinBackend(cfg.Render.Program)
	}

	pipe, err := effects.NewPipeline(cfg.GIF.Size, cfg.GIF.Background, cfg.GIF.Filter)
	if err != nil {
		return nil, err
	}
	pipe.Letterbox = cfg.GIF.Letterbox
	asm := &video.Assembler{
		Pattern:  cfg.Render.Pattern,
		Pipeline: pipe,
		DelayMS:  cfg.GIF.DelayMS,
		Loop:     cfg.GIF.Loop,
		Dither:   cfg.GIF.Dither,
		Optimize: cfg.GIF.Optimize,
	}

	var enc *video.FFmpegEncoder
	if cfg.MP4 {
		enc = &video.FFmpegEncoder{Encoder: cfg.VideoEncoder, Quality: cfg.Quality, FPS: framesPerSecond(cfg.GIF.DelayMS)}
	}

	runID := NewRunID()
	p := &Project{
		Config:    cfg,
		ScenePath: scenePath,
		Scene:     sc,
		Estimator: est,
		Director:  dir,
		Renderer:  renderer.NewOrchestrator(backend, cfg.Render.Timeout),
		Assembler: asm,
		Encoder:   enc,
		RunID:     runID,
		RunDir:    filepath.Join(cfg.OutputDir, runID),
	}
	p.SetOutput(os.Stdout)
	return p, nil
}

// SetOutput sends progress and live renderer output to w.
func (p *Project) SetOutput(w io.Writer) {
	p.Out = w
	p.Renderer.Log = w
}

func newEstimator(c config.DepthConfig) (analyzer.Estimator, error) {
	est, err := analyzer.NewEstimator(c.Estimator)
	if err != nil {
		return nil, err
	}
	switch e := est.(type) {
	case *analyzer.RaycastEstimator:
		if len(c.Angles) > 0 {
			e.Angles = c.Angles
		}
		if c.MaxDistance > 0 {
			e.MaxDistance = c.MaxDistance
		}
		if c.Default > 0 {
			e.DefaultDepth = c.Default
		}
		e.MinHitFraction = c.MinHitFraction
	case *analyzer.BoundsEstimator:
		if c.Default > 0 {
			e.DefaultDepth = c.Default
		}
	}
	return est, nil
}

// NewRunID returns a sortable, unique run directory name.
func NewRunID() string {
	return time.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8]
}

// Run executes the configured modes in order. The first failure ends the
// run; reports of the modes that finished are returned with it.
func (p *Project) Run(ctx context.Context) ([]*Report, error) {
	start := time.Now()
	if err := os.MkdirAll(p.RunDir, 0755); err != nil {
		return nil, err
	}

	fmt.Fprintln(p.Out, "--- [PROJECT: ORBIT ENGINE] ---")
	fmt.Fprintf(p.Out, "[*] Сцена: %s | Кадры сцены: %d..%d\n", p.ScenePath, p.Scene.FrameStart, p.Scene.FrameEnd)
	fmt.Fprintf(p.Out, "[*] Рендер: %s | %dx%d | GIF %dpx\n", p.Renderer.Backend.Name(), p.Config.Render.Resolution, p.Config.Render.Resolution, p.Config.GIF.Size)
	fmt.Fprintf(p.Out, "[*] Результаты: %s\n", p.RunDir)
	fmt.Fprintln(p.Out, "-----------------------------")

	var reports []*Report
	for _, mode := range p.Config.Modes() {
		var (
			rep *Report
			err error
		)
		switch mode {
		case config.ModeOrbit:
			rep, err = p.RunOrbit(ctx)
		case config.ModePlayback:
			rep, err = p.RunPlayback(ctx)
		}
		if rep != nil {
			reports = append(reports, rep)
		}
		if err != nil {
			return reports, err
		}
	}

	if p.Config.ShowStats {
		p.ShowStats(reports, time.Since(start))
	}
	return reports, nil
}

// RunOrbit estimates depth at the orbit frame, plans a full turn around
// the anchor and renders it into rotation_frames.
func (p *Project) RunOrbit(ctx context.Context) (*Report, error) {
	const mode = config.ModeOrbit
	rep := &Report{Mode: mode}
	t0 := time.Now()

	frame := p.Scene.FrameStart
	if p.Config.OrbitFrame != nil {
		frame = *p.Config.OrbitFrame
	}
	pose, err := p.Scene.CameraPose(frame)
	if err != nil {
		return rep, &StageError{Stage: StagePlan, Mode: mode, Err: err}
	}

	est := p.Estimator.Estimate(pose, p.Scene.Geometry(frame))
	rep.Depth = &est
	fmt.Fprintf(p.Out, "[*] Глубина: %.3f (%s, попаданий %d/%d)\n", est.Depth, est.Source, est.Hits, est.Rays)

	plan, err := p.Director.Orbit(pose, est.Depth, p.Config.Orbit.Frames)
	if err != nil {
		return rep, &StageError{Stage: StagePlan, Mode: mode, Err: err}
	}
	plan.SceneFrame = frame
	rep.Anchor = plan.Anchor
	fmt.Fprintf(p.Out, "[*] Орбита: центр %v, радиус %.3f, угол %.1f°, кадров %d\n",
		plan.Anchor.Point, plan.Anchor.Radius, plan.Anchor.Elevation*180/math.Pi, plan.Len())

	if p.Config.Preview {
		preview := filepath.Join(p.RunDir, "orbit_preview.png")
		if err := director.SavePreview(plan, preview); err != nil {
			log.Printf("[!] Не удалось сохранить превью орбиты: %v", err)
		} else {
			rep.Preview = preview
		}
	}
	rep.PlanTime = time.Since(t0)

	return p.renderAndAssemble(ctx, rep, plan, RotationFrames, "rotation")
}

// RunPlayback renders the scene's own animation range into
// animation_frames.
func (p *Project) RunPlayback(ctx context.Context) (*Report, error) {
	const mode = config.ModePlayback
	rep := &Report{Mode: mode}
	t0 := time.Now()

	plan, err := p.Director.Playback(p.Scene.FrameStart, p.Scene.FrameEnd)
	if err != nil {
		return rep, &StageError{Stage: StagePlan, Mode: mode, Err: err}
	}
	rep.PlanTime = time.Since(t0)
	fmt.Fprintf(p.Out, "[*] Анимация: кадры %d..%d\n", p.Scene.FrameStart, p.Scene.FrameEnd)

	return p.renderAndAssemble(ctx, rep, plan, AnimationFrames, "animation")
}

func (p *Project) renderAndAssemble(ctx context.Context, rep *Report, plan *director.FramePlan, framesDir, name string) (*Report, error) {
	mode := rep.Mode
	rep.Expected = plan.Len()
	rep.FramesDir = filepath.Join(p.RunDir, framesDir)

	if err := director.WritePlan(plan, director.PlanPath(p.RunDir, plan.Mode)); err != nil {
		return rep, &StageError{Stage: StagePlan, Mode: mode, Expected: rep.Expected, Err: err}
	}

	// 1. Рендер одним вызовом внешнего процесса
	fmt.Fprintf(p.Out, "[*] Рендер %d кадров (%s)...\n", rep.Expected, p.Renderer.Backend.Name())
	res, err := p.Renderer.Render(ctx, renderer.Request{
		Scene:      p.ScenePath,
		Plan:       plan,
		OutputDir:  rep.FramesDir,
		Resolution: p.Config.Render.Resolution,
	})
	if res != nil {
		rep.Found = res.Found
		rep.RenderTime = res.Elapsed
	}
	if err != nil {
		return rep, &StageError{Stage: StageRender, Mode: mode, Expected: rep.Expected, Found: rep.Found, Err: err}
	}
	if rep.Found < rep.Expected {
		log.Printf("[!] %s: отрендерено %d из %d кадров", mode, rep.Found, rep.Expected)
	}

	// 2. Сборка GIF
	t0 := time.Now()
	out := filepath.Join(p.RunDir, GIFDir, name+".gif")
	fmt.Fprintf(p.Out, "[*] Сборка %s...\n", out)
	// each mode has its own frame delay
	asm := *p.Assembler
	asm.DelayMS = p.Config.GIF.Delay(mode)
	rep.DelayMS = asm.DelayMS
	gif, err := asm.Assemble(ctx, rep.FramesDir, out)
	if err != nil {
		return rep, &StageError{Stage: StageAssemble, Mode: mode, Expected: rep.Expected, Found: rep.Found, Err: err}
	}
	rep.Artifact = gif.Path
	rep.Bytes = gif.Bytes
	rep.Frames = gif.Frames

	if p.Encoder != nil {
		if err := p.exportMP4(ctx, rep, name); err != nil {
			return rep, &StageError{Stage: StageAssemble, Mode: mode, Expected: rep.Expected, Found: rep.Found, Err: err}
		}
	}
	rep.AssembleTime = time.Since(t0)

	fmt.Fprintf(p.Out, "[+++] %s: %s (%d кадров, %.1f КБ)\n", mode, rep.Artifact, rep.Frames, float64(rep.Bytes)/1024)
	return rep, nil
}

func (p *Project) exportMP4(ctx context.Context, rep *Report, name string) error {
	src, err := source.NewFrameSource(rep.FramesDir, p.Assembler.Pattern)
	if err != nil {
		return err
	}
	out := filepath.Join(p.RunDir, GIFDir, name+".mp4")
	enc := *p.Encoder
	enc.FPS = framesPerSecond(rep.DelayMS)
	if err := enc.EncodeSequence(ctx, src, p.Assembler.Pipeline, out); err != nil {
		return fmt.Errorf("mp4 export: %w", err)
	}
	rep.MP4 = out
	return nil
}

func framesPerSecond(delayMS int) int {
	return max(1, 1000/max(delayMS, 1))
}
