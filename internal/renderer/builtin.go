package renderer

import (
	"fmt"
	"os"

	"github.com/ivlev/orbit2gif/internal/director"
)

// BuiltinBackend runs the software rasteriser shipped as the worker
// subcommand of this binary.
type BuiltinBackend struct {
	Program string   // executable, the running binary when empty
	Prefix  []string // arguments before the worker flags
	Env     []string
}

func NewBuiltinBackend(program string) *BuiltinBackend {
	return &BuiltinBackend{Program: program, Prefix: []string{"worker"}}
}

func (b *BuiltinBackend) Name() string { return "builtin" }

// Prepare writes the plan to a temporary file:
//
//	<program> worker --background <scene> --plan <plan> -- <out> <res> [n]
func (b *BuiltinBackend) Prepare(req Request) (*Invocation, error) {
	if req.Scene == "" {
		return nil, fmt.Errorf("no scene file")
	}
	program := b.Program
	if program == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate worker binary: %w", err)
		}
		program = self
	}

	planPath, err := writeTempPlan(req.Plan)
	if err != nil {
		return nil, err
	}

	args := append([]string{}, b.Prefix...)
	args = append(args, "--background", req.Scene, "--plan", planPath, Delimiter)
	args = append(args, req.BatchArgs()...)

	return &Invocation{
		Program: program,
		Args:    args,
		Env:     b.Env,
		cleanup: []string{planPath},
	}, nil
}

func writeTempPlan(plan *director.FramePlan) (string, error) {
	f, err := os.CreateTemp("", "orbit2gif-plan-*.yaml")
	if err != nil {
		return "", err
	}
	path := f.Name()
	f.Close()

	if err := director.WritePlan(plan, path); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write plan: %w", err)
	}
	return path, nil
}
