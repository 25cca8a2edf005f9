package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	dockerexec "github.com/noah-isme/ai-feedback-api/pkg/docker"
)

type fakeExecutor struct {
	mu       sync.Mutex
	requests []dockerexec.ExecutionRequest
	failOn   string
}

func (f *fakeExecutor) Run(_ context.Context, req dockerexec.ExecutionRequest) (dockerexec.ExecutionResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	output := req.Cmd[len(req.Cmd)-1]
	if f.failOn != "" && strings.Contains(output, f.failOn) {
		return dockerexec.ExecutionResult{ExitCode: 1, Stderr: "boom"}, errors.New("exit 1")
	}

	hostPath := filepath.Join(req.Binds[0].Source, strings.TrimPrefix(output, containerWorkdir+"/"))
	if err := os.WriteFile(hostPath, []byte("out"), 0o600); err != nil {
		return dockerexec.ExecutionResult{}, err
	}
	return dockerexec.ExecutionResult{}, nil
}

func TestFFmpegProcessorProducesBothArtifacts(t *testing.T) {
	exec := &fakeExecutor{}
	processor := NewFFmpegProcessor(exec, Config{Image: "ffmpeg:test", Workdir: t.TempDir(), Logger: zerolog.Nop()})

	artifacts, err := processor.Process(context.Background(), Input{Filename: "clip.MOV", Reader: strings.NewReader("video")})
	require.NoError(t, err)
	require.FileExists(t, artifacts.VideoPath)
	require.FileExists(t, artifacts.AudioPath)
	require.True(t, strings.HasSuffix(artifacts.VideoPath, ".mov"))
	require.True(t, strings.HasSuffix(artifacts.AudioPath, ".mp3"))
	require.Len(t, exec.requests, 2)

	for _, req := range exec.requests {
		require.Equal(t, "ffmpeg:test", req.Image)
		require.Equal(t, "/work/input.mov", req.Cmd[2])
		require.Equal(t, containerWorkdir, req.Binds[0].Target)
	}

	input, err := os.ReadFile(filepath.Join(filepath.Dir(artifacts.VideoPath), "input.mov"))
	require.NoError(t, err)
	require.Equal(t, "video", string(input))

	artifacts.Cleanup()
	require.NoDirExists(t, filepath.Dir(artifacts.VideoPath))
}

func TestFFmpegProcessorFailsWhenAStepFails(t *testing.T) {
	workdir := t.TempDir()
	processor := NewFFmpegProcessor(&fakeExecutor{failOn: ".mp3"}, Config{Workdir: workdir, Logger: zerolog.Nop()})

	_, err := processor.Process(context.Background(), Input{Filename: "clip.mp4", Reader: strings.NewReader("video")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ffmpeg audio")

	entries, err := os.ReadDir(workdir)
	require.NoError(t, err)
	require.Empty(t, entries, "workdir must be cleaned up on failure")
}

func TestFFmpegArgs(t *testing.T) {
	require.Equal(t, []string{"-y", "-i", "in.mp4", "-vf", "crop=iw/2:ih:iw/2:0", "-an", "out.mp4"}, CropRightHalfArgs("in.mp4", "out.mp4"))
	require.Equal(t, []string{"-y", "-i", "in.mp4", "-q:a", "0", "-map", "a", "out.mp3"}, ExtractAudioArgs("in.mp4", "out.mp3"))
}
