package director

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// FramePattern matches the stills of either mode.
const FramePattern = "frame_*.png"

// Minimum zero padding of still numbers.
const (
	orbitDigits    = 3
	playbackDigits = 4
)

// FileName returns the still name for an entry. Orbit stills are numbered by
// plan index, playback stills by scene frame. The padding grows with the
// largest number in the plan so that lexicographic order is numeric order.
func (p *FramePlan) FileName(e Entry) string {
	if p.Mode == ModePlayback {
		return fmt.Sprintf("frame_%0*d.png", p.digits(), e.Frame)
	}
	return fmt.Sprintf("frame_%0*d.png", p.digits(), e.Index)
}

func (p *FramePlan) digits() int {
	if p.Mode == ModePlayback {
		last := 0
		if n := len(p.Entries); n > 0 {
			last = p.Entries[n-1].Frame
		}
		return max(playbackDigits, len(strconv.Itoa(last)))
	}
	return max(orbitDigits, len(strconv.Itoa(len(p.Entries)-1)))
}

// PlanPath returns where the plan of a mode is kept inside a run directory
func PlanPath(runDir string, mode Mode) string {
	return filepath.Join(runDir, fmt.Sprintf("%s_plan.yaml", mode))
}
