package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Harshith24/rag-video/core"
)

// Preprocessor turns a video locator into a normalized audio track plus an
// ordered sequence of frames sampled every interval seconds. Implementations
// write everything under workDir and must place the frame images in the
// workDir/frames subdirectory, which the pipeline relocates wholesale when a
// batch commits. The caller owns workDir's lifetime.
type Preprocessor interface {
	Prepare(ctx context.Context, url, workDir string, intervalSec float64) (*core.Media, error)
}

// ToolPreprocessor shells out to yt-dlp, ffprobe and ffmpeg. A non-zero exit
// from any tool is an acquisition failure that aborts the whole ingestion.
type ToolPreprocessor struct{}

func (ToolPreprocessor) Prepare(ctx context.Context, url, workDir string, intervalSec float64) (*core.Media, error) {
	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, core.Acquisition(fmt.Errorf("create frames dir: %w", err))
	}

	videoPath := filepath.Join(workDir, "input.mp4")
	if err := runTool(ctx, "yt-dlp", "--no-check-certificate", "-f", "mp4", "-o", videoPath, url); err != nil {
		return nil, core.Acquisition(fmt.Errorf("download %s: %w", url, err))
	}

	info, err := probeVideo(ctx, videoPath)
	if err != nil {
		return nil, core.Acquisition(err)
	}

	media := &core.Media{
		VideoPath: videoPath,
		Duration:  info.Duration,
		HasAudio:  info.HasAudio,
	}

	// A video without an audio stream is valid; it simply yields zero
	// speech segments downstream.
	if info.HasAudio {
		audioPath := filepath.Join(workDir, "audio.wav")
		if err := runTool(ctx, "ffmpeg", "-y", "-i", videoPath, "-vn", "-ac", "1", "-ar", "16000", "-f", "wav", audioPath); err != nil {
			return nil, core.Acquisition(fmt.Errorf("extract audio: %w", err))
		}
		media.AudioPath = audioPath
	}

	pattern := filepath.Join(framesDir, "%05d.jpg")
	if err := runTool(ctx, "ffmpeg", "-y", "-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%g", intervalSec), "-q:v", "2", pattern); err != nil {
		return nil, core.Acquisition(fmt.Errorf("extract frames: %w", err))
	}

	frames, err := enumerateFrames(framesDir, intervalSec)
	if err != nil {
		return nil, core.Acquisition(err)
	}
	media.Frames = frames
	return media, nil
}

func runTool(ctx context.Context, name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	cmd := exec.CommandContext(ctx, path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (output: %s)", name, err, tail(string(output), 500))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

type videoInfo struct {
	Duration float64
	HasAudio bool
}

func probeVideo(ctx context.Context, path string) (*videoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType string `json:"codec_type"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &videoInfo{}
	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}
	for _, s := range probe.Streams {
		if s.CodecType == "audio" {
			info.HasAudio = true
		}
	}
	return info, nil
}

// enumerateFrames lists the sampled frames in time order. ffmpeg numbers the
// fps filter output from 1, so frame i sits at offset (i-1)*interval.
func enumerateFrames(framesDir string, intervalSec float64) ([]core.Frame, error) {
	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	frames := make([]core.Frame, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		base := strings.TrimSuffix(name, filepath.Ext(name))
		i, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		frames = append(frames, core.Frame{
			TimestampSec: float64(i-1) * intervalSec,
			Path:         filepath.Join(framesDir, name),
		})
	}
	return frames, nil
}
