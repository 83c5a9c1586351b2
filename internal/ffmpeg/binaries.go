package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// environment variables that override the PATH lookup
const (
	EnvFFmpegPath  = "VVSRT_FFMPEG_PATH"
	EnvFFprobePath = "VVSRT_FFPROBE_PATH"
)

// ErrNotFound is returned when a binary is neither configured nor on PATH.
var ErrNotFound = errors.New("binary not found")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure locates both binaries once per process.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = Locate()
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

// Locate resolves ffmpeg and ffprobe from their environment variables, then
// from PATH.
func Locate() (BinaryPaths, error) {
	ffmpegPath, err := find(EnvFFmpegPath, "ffmpeg")
	if err != nil {
		return BinaryPaths{}, err
	}
	ffprobePath, err := find(EnvFFprobePath, "ffprobe")
	if err != nil {
		return BinaryPaths{}, err
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func find(env, name string) (string, error) {
	if path := os.Getenv(env); path != "" {
		if !fileExists(path) {
			return "", fmt.Errorf("%s points to %s: %w", env, path, ErrNotFound)
		}
		return path, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w (install it or set %s)", name, ErrNotFound, env)
	}
	return path, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
