package video

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/ivlev/orbit2gif/internal/effects"
	"github.com/ivlev/orbit2gif/internal/source"
)

// FFmpegEncoder exports a still sequence as H.264 MP4.
type FFmpegEncoder struct {
	Program string // ffmpeg when empty
	Encoder string // libx264, h264_nvenc, h264_videotoolbox
	Quality int
	FPS     int
}

// EncodeSequence pipes every still, normalised by pipe, to ffmpeg as raw
// RGBA and writes out.
func (e *FFmpegEncoder) EncodeSequence(ctx context.Context, src source.Source, pipe *effects.Pipeline, out string) error {
	if src.Count() == 0 {
		return ErrNoFrames
	}

	program := e.Program
	if program == "" {
		program = "ffmpeg"
	}
	args := e.buildFFmpegArgs(pipe.Size, pipe.Size, out)
	cmd := exec.CommandContext(ctx, program, args...)

	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	// Запись raw RGBA данных
	werr := e.writeFrames(stdin, src, pipe)
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, output.String())
	}
	if werr != nil {
		return fmt.Errorf("write raw error: %w", werr)
	}
	return nil
}

func (e *FFmpegEncoder) writeFrames(w io.Writer, src source.Source, pipe *effects.Pipeline) error {
	for i := 0; i < src.Count(); i++ {
		img, err := src.Load(i)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if _, err := w.Write(pipe.Apply(img).Pix); err != nil {
			return err
		}
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(w, h int, out string) []string {
	fps := e.FPS
	if fps <= 0 {
		fps = 20
	}
	encoder := e.Encoder
	if encoder == "" {
		encoder = "libx264"
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", encoder,
	}

	// Качество в зависимости от энкодера
	switch encoder {
	case "h264_videotoolbox":
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	args = append(args, out)
	return args
}
