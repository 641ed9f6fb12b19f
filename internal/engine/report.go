package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/orbit2gif/internal/analyzer"
	"github.com/ivlev/orbit2gif/internal/director"
)

// Report is what one mode produced.
type Report struct {
	Mode      string
	Depth     *analyzer.Estimate // orbit only
	Anchor    *director.Anchor   // orbit only
	Preview   string
	Expected  int
	Found     int
	Frames    int // frames in the GIF
	DelayMS   int
	FramesDir string
	Artifact  string
	MP4       string
	Bytes     int64

	PlanTime     time.Duration
	RenderTime   time.Duration
	AssembleTime time.Duration
}

// BenchmarkLog collects one line per mode of every run with stats enabled.
const BenchmarkLog = "benchmark.log"

// ShowStats prints a per-mode timing report and appends it to
// benchmark.log in the output directory.
func (p *Project) ShowStats(reports []*Report, total time.Duration) {
	fmt.Fprintf(p.Out, "--- [PERFORMANCE REPORT] ---\nBuild: %s\nRun: %s\nTotal Time: %.2fs\n",
		p.Config.BuildVersion, p.RunID, total.Seconds())
	for _, r := range reports {
		fps := 0.0
		if r.RenderTime > 0 {
			fps = float64(r.Found) / r.RenderTime.Seconds()
		}
		fmt.Fprintf(p.Out, "[%s] Plan: %.2fs | Render: %.2fs | Assemble: %.2fs | Frames: %d/%d | Render FPS: %.2f\n",
			r.Mode, r.PlanTime.Seconds(), r.RenderTime.Seconds(), r.AssembleTime.Seconds(), r.Found, r.Expected, fps)
	}
	fmt.Fprintln(p.Out, "----------------------------")

	f, err := os.OpenFile(filepath.Join(p.Config.OutputDir, BenchmarkLog), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(p.Out, "[!] Не удалось записать benchmark.log: %v\n", err)
		return
	}
	defer f.Close()

	now := time.Now().Format("2006-01-02 15:04:05")
	for _, r := range reports {
		fmt.Fprintf(f, "[%s] Build: %s | Scene: %s | Mode: %s | Frames: %d/%d | Total: %.2fs | Render: %.2fs | Assemble: %.2fs\n",
			now, p.Config.BuildVersion, filepath.Base(p.ScenePath), r.Mode, r.Found, r.Expected,
			total.Seconds(), r.RenderTime.Seconds(), r.AssembleTime.Seconds())
	}
}
