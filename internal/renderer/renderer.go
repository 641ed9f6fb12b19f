package renderer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ivlev/orbit2gif/internal/director"
	"github.com/ivlev/orbit2gif/internal/system"
)

// Delimiter separates the renderer's own options from the batch arguments.
const Delimiter = "--"

// DefaultTimeout bounds one render batch.
const DefaultTimeout = 30 * time.Minute

var (
	ErrTimeout = errors.New("render batch timed out")
	ErrExit    = errors.New("renderer exited with an error")
)

// Request is one batch: every entry of Plan rendered into OutputDir.
type Request struct {
	Scene      string // scene file the renderer loads
	Plan       *director.FramePlan
	OutputDir  string
	Resolution int // square, pixels
}

// BatchArgs returns the positional arguments placed after Delimiter:
// output directory, resolution and, for orbits only, the frame count.
func (r Request) BatchArgs() []string {
	args := []string{r.OutputDir, fmt.Sprint(r.Resolution)}
	if r.Plan.Mode == director.ModeOrbit {
		args = append(args, fmt.Sprint(r.Plan.Len()))
	}
	return args
}

// Invocation is a prepared external process.
type Invocation struct {
	Program string
	Args    []string
	Env     []string // added to the inherited environment
	cleanup []string // temporary files removed after the batch
}

// Cleanup removes the files the backend created for this invocation.
func (inv *Invocation) Cleanup() {
	for _, p := range inv.cleanup {
		os.Remove(p)
	}
}

// Backend turns a request into a single external process call.
type Backend interface {
	Name() string
	Prepare(req Request) (*Invocation, error)
}

// RenderedFrame is one still on disk and the plan index it belongs to.
type RenderedFrame struct {
	Index int
	Path  string
}

// Result reports what a batch left on disk.
type Result struct {
	Expected int
	Found    int
	Frames   []RenderedFrame
	Output   string // tail of the renderer's combined output
	Elapsed  time.Duration
}

// Orchestrator runs render batches, one blocking process per plan.
type Orchestrator struct {
	Backend Backend
	Timeout time.Duration
	Log     io.Writer // live renderer output, discarded when nil
}

func NewOrchestrator(b Backend, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{Backend: b, Timeout: timeout}
}

// Render runs the batch and then looks for the planned stills. The Result
// is returned even when the batch failed, so that callers can report how
// many stills exist.
func (o *Orchestrator) Render(ctx context.Context, req Request) (*Result, error) {
	if req.Plan == nil {
		return nil, errors.New("render request has no plan")
	}
	if err := req.Plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	if req.Resolution < 1 {
		return nil, fmt.Errorf("resolution must be positive, got %d", req.Resolution)
	}
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, err
	}

	inv, err := o.Backend.Prepare(req)
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", o.Backend.Name(), err)
	}
	defer inv.Cleanup()

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tail := newTailBuffer(4096)
	var out io.Writer = tail
	if o.Log != nil {
		out = io.MultiWriter(tail, o.Log)
	}

	cmd := exec.CommandContext(runCtx, inv.Program, inv.Args...)
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Cancel = func() error {
		return system.KillProcessTree(cmd.Process.Pid)
	}
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	runErr := cmd.Run()

	res := collect(req)
	res.Output = tail.String()
	res.Elapsed = time.Since(start)

	switch {
	case runErr == nil:
		return res, nil
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return res, fmt.Errorf("%w after %s (%d/%d frames on disk)", ErrTimeout, timeout, res.Found, res.Expected)
	case ctx.Err() != nil:
		return res, ctx.Err()
	default:
		return res, fmt.Errorf("%w: %v\n%s", ErrExit, runErr, res.Output)
	}
}

// collect maps planned file names to stills that exist.
func collect(req Request) *Result {
	names := req.Plan.FileNames()
	res := &Result{Expected: len(names)}
	for i, name := range names {
		path := filepath.Join(req.OutputDir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
			res.Frames = append(res.Frames, RenderedFrame{Index: req.Plan.Entries[i].Index, Path: path})
		}
	}
	res.Found = len(res.Frames)
	return res
}
