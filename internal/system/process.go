package system

import (
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// KillProcessTree kills pid and every process below it. Descendants are
// collected before anything is killed, since orphans get re-parented.
func KillProcessTree(pid int) error {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}
		return fmt.Errorf("process %d: %w", pid, err)
	}

	tree := descendants(root)
	tree = append(tree, root)

	var errs []error
	for _, p := range tree {
		if err := p.Kill(); err != nil {
			if running, _ := p.IsRunning(); running {
				errs = append(errs, fmt.Errorf("kill %d: %w", p.Pid, err))
			}
		}
	}
	return errors.Join(errs...)
}

// descendants lists children depth first, deepest first.
func descendants(p *process.Process) []*process.Process {
	children, err := p.Children()
	if err != nil {
		return nil
	}
	var out []*process.Process
	for _, c := range children {
		out = append(out, descendants(c)...)
		out = append(out, c)
	}
	return out
}
