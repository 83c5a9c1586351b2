package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/vvsrt/internal/ffmpeg"
	"github.com/mgpai22/vvsrt/internal/timing"
)

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// duration of an audio/video file
func GetDuration(filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", filePath)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbe(out.Bytes())
}

func parseProbe(data []byte) (time.Duration, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// Drift is the difference between the audio length and the computed
// timeline in seconds, and whether it exceeds one synthesis frame.
func Drift(timeline float64, actual time.Duration) (float64, bool) {
	diff := actual.Seconds() - timeline
	return diff, math.Abs(diff) > 1/timing.FrameRate
}

// codecs for muxing into a container, chosen by its extension
type muxCodecs struct {
	Audio    string
	Subtitle string
}

func codecsFor(outPath string) (muxCodecs, error) {
	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".mkv", ".mka":
		return muxCodecs{Audio: "copy", Subtitle: "copy"}, nil
	case ".mp4", ".m4a", ".mov":
		return muxCodecs{Audio: "aac", Subtitle: "mov_text"}, nil
	case ".webm":
		return muxCodecs{Audio: "libopus", Subtitle: "webvtt"}, nil
	default:
		return muxCodecs{}, fmt.Errorf("unsupported container: %s (supported: mkv, mka, mp4, m4a, mov, webm)", filepath.Ext(outPath))
	}
}

// muxStream builds the ffmpeg graph that joins the audio with one subtitle
// track tagged as language.
func muxStream(audioPath, subtitlePath, outPath, language string) (*ffmpeg.Stream, error) {
	codecs, err := codecsFor(outPath)
	if err != nil {
		return nil, err
	}

	kwargs := ffmpeg.KwArgs{
		"c:a": codecs.Audio,
		"c:s": codecs.Subtitle,
	}
	if language != "" {
		kwargs["metadata:s:s:0"] = "language=" + language
	}

	return ffmpeg.Output(
		[]*ffmpeg.Stream{ffmpeg.Input(audioPath), ffmpeg.Input(subtitlePath)},
		outPath,
		kwargs,
	).OverWriteOutput(), nil
}

// Mux writes audioPath and the subtitle track at subtitlePath into the
// container outPath. The container is picked from the extension.
func Mux(ctx context.Context, audioPath, subtitlePath, outPath, language string) error {
	for _, path := range []string{audioPath, subtitlePath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	stream, err := muxStream(audioPath, subtitlePath, outPath, language)
	if err != nil {
		return err
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath, stream.GetArgs()...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mux failed: %w: %s", err, strings.TrimSpace(lastLine(stderr.String())))
	}

	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	audioExts := map[string]bool{
		".mp3":  true,
		".wav":  true,
		".aac":  true,
		".flac": true,
		".ogg":  true,
		".m4a":  true,
		".wma":  true,
		".aiff": true,
	}
	return audioExts[ext]
}
