package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	dockerexec "github.com/noah-isme/ai-feedback-api/pkg/docker"
)

const containerWorkdir = "/work"

// Input is an uploaded video waiting to be processed.
type Input struct {
	Filename string
	Reader   io.Reader
}

// Artifacts are the files derived from a video. Cleanup removes them.
type Artifacts struct {
	VideoPath string
	AudioPath string
	Cleanup   func()
}

// Processor derives the cropped video and the audio track from an upload.
type Processor interface {
	Process(ctx context.Context, input Input) (Artifacts, error)
}

// Config configures the ffmpeg processor.
// Workdir must be visible to the Docker daemon at the same path.
type Config struct {
	Image   string
	Workdir string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// FFmpegProcessor runs ffmpeg inside a throwaway container.
type FFmpegProcessor struct {
	executor dockerexec.Executor
	cfg      Config
	logger   zerolog.Logger
}

// NewFFmpegProcessor constructs a processor backed by the given executor.
func NewFFmpegProcessor(executor dockerexec.Executor, cfg Config) *FFmpegProcessor {
	if cfg.Image == "" {
		cfg.Image = "jrottenberg/ffmpeg:6.1-alpine"
	}
	if cfg.Workdir == "" {
		cfg.Workdir = os.TempDir()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &FFmpegProcessor{
		executor: executor,
		cfg:      cfg,
		logger:   cfg.Logger.With().Str("component", "ffmpeg_processor").Logger(),
	}
}

// Process crops the right half of the video without audio and extracts the audio as mp3.
// Both ffmpeg runs happen concurrently; either failing fails the whole call.
func (p *FFmpegProcessor) Process(ctx context.Context, input Input) (Artifacts, error) {
	if input.Reader == nil {
		return Artifacts{}, errors.New("video input is empty")
	}

	dir, err := os.MkdirTemp(p.cfg.Workdir, "media-*")
	if err != nil {
		return Artifacts{}, fmt.Errorf("create media workdir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn().Err(err).Str("dir", dir).Msg("failed to remove media workdir")
		}
	}

	ext := strings.ToLower(filepath.Ext(input.Filename))
	if ext == "" {
		ext = ".mp4"
	}
	inputName := "input" + ext

	if err := writeInput(filepath.Join(dir, inputName), input.Reader); err != nil {
		cleanup()
		return Artifacts{}, err
	}

	stamp := time.Now().UnixNano()
	videoName := fmt.Sprintf("parsed-muted_%d%s", stamp, ext)
	audioName := fmt.Sprintf("extracted-audio_%d.mp3", stamp)
	source := containerWorkdir + "/" + inputName

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return p.run(groupCtx, dir, "crop", CropRightHalfArgs(source, containerWorkdir+"/"+videoName))
	})
	group.Go(func() error {
		return p.run(groupCtx, dir, "audio", ExtractAudioArgs(source, containerWorkdir+"/"+audioName))
	})
	if err := group.Wait(); err != nil {
		cleanup()
		return Artifacts{}, err
	}

	artifacts := Artifacts{
		VideoPath: filepath.Join(dir, videoName),
		AudioPath: filepath.Join(dir, audioName),
		Cleanup:   cleanup,
	}

	for _, path := range []string{artifacts.VideoPath, artifacts.AudioPath} {
		if _, err := os.Stat(path); err != nil {
			cleanup()
			return Artifacts{}, fmt.Errorf("ffmpeg output missing: %w", err)
		}
	}

	return artifacts, nil
}

func (p *FFmpegProcessor) run(ctx context.Context, dir, step string, args []string) error {
	result, err := p.executor.Run(ctx, dockerexec.ExecutionRequest{
		Image:      p.cfg.Image,
		Cmd:        args,
		WorkingDir: containerWorkdir,
		Timeout:    p.cfg.Timeout,
		Binds: []dockerexec.Bind{
			{Source: dir, Target: containerWorkdir},
		},
	})
	if err != nil {
		p.logger.Error().Err(err).Str("step", step).Str("stderr", tail(result.Stderr, 512)).Msg("ffmpeg run failed")
		return fmt.Errorf("ffmpeg %s: %w", step, err)
	}

	p.logger.Debug().Str("step", step).Dur("duration", result.Duration).Msg("ffmpeg run finished")
	return nil
}

// CropRightHalfArgs keeps the right half of the frame and drops the audio stream.
func CropRightHalfArgs(input, output string) []string {
	return []string{"-y", "-i", input, "-vf", "crop=iw/2:ih:iw/2:0", "-an", output}
}

// ExtractAudioArgs extracts the audio stream at the best VBR quality.
func ExtractAudioArgs(input, output string) []string {
	return []string{"-y", "-i", input, "-q:a", "0", "-map", "a", output}
}

func writeInput(path string, reader io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create media input: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("write media input: %w", err)
	}

	return nil
}

func tail(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[len(value)-max:]
}
