package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ytget/ytqueue/internal/model"
)

// FFmpeg constants for conversion settings
const (
	// Video codec settings
	VideoCodecH264 = "libx264"
	VideoCodecVP9  = "libvpx-vp9"
	VideoPreset    = "medium"
	VideoCRFH264   = "23"
	VideoCRFVP9    = "32"

	// Audio codec settings
	AudioCodecAAC  = "aac"
	AudioCodecMP3  = "libmp3lame"
	AudioCodecOpus = "libopus"
	AudioBitrate   = "192k"
	MP3Quality     = "2"

	// Container flags
	FastStartFlag = "+faststart"

	// Executable and I/O constants
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFmpegLogLevel      = "error"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	ProgressPipeTarget  = "pipe:2"
	ProgressTimePrefix  = "out_time_us="
	ProgressKeyPrefix   = "progress="
)

// maxErrorLines is how many ffmpeg diagnostic lines are kept for error messages
const maxErrorLines = 5

// Options configures the ffmpeg binaries
type Options struct {
	FFmpegPath  string
	FFprobePath string
}

// Service converts media files between containers with ffmpeg
type Service struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
}

// NewService creates a conversion service. Empty paths fall back to the
// binaries on PATH; ffprobe is looked up next to a custom ffmpeg.
func NewService(opts Options, logger *slog.Logger) *Service {
	ffmpegPath := opts.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = FFmpegCommand
	}
	ffprobePath := opts.FFprobePath
	if ffprobePath == "" {
		ffprobePath = FFprobeCommand
		if dir := filepath.Dir(ffmpegPath); dir != "." {
			ffprobePath = filepath.Join(dir, FFprobeCommand+filepath.Ext(ffmpegPath))
		}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger,
	}
}

// Check reports whether ffmpeg can be found
func (s *Service) Check() error {
	if _, err := exec.LookPath(s.ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	return nil
}

// Convert transcodes inputPath into outputPath for the given container.
// progress receives fractions in [0,1] when the input duration is known.
// A partial output file is removed on failure or cancellation.
func (s *Service) Convert(ctx context.Context, inputPath, outputPath string, container model.Container, progress func(float64)) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file does not exist: %s", inputPath)
	}

	duration, err := s.probeDuration(ctx, inputPath)
	if err != nil {
		s.logger.Debug("Failed to probe duration", "path", inputPath, "error", err)
	}

	args := BuildFFmpegArgs(inputPath, outputPath, container)
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	var diagnostics []string
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		diagnostics = monitorProgress(stderr, duration, progress)
	}()

	// The pipe must be drained before Wait closes it.
	wg.Wait()
	err = cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		os.Remove(outputPath)
		return ctxErr
	}
	if err != nil {
		os.Remove(outputPath)
		if len(diagnostics) > 0 {
			return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.Join(diagnostics, "; "))
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	if progress != nil {
		progress(1)
	}
	return nil
}

// BuildFFmpegArgs builds the ffmpeg command arguments for a target container
func BuildFFmpegArgs(inputPath, outputPath string, container model.Container) []string {
	args := []string{
		"-y",                          // Overwrite output file
		"-loglevel", FFmpegLogLevel, // Only errors besides progress
		"-i", inputPath, // Input file
	}

	switch container {
	case model.ContainerMP3:
		args = append(args,
			"-vn",
			"-c:a", AudioCodecMP3,
			"-q:a", MP3Quality,
		)
	case model.ContainerM4A:
		args = append(args,
			"-vn",
			"-c:a", AudioCodecAAC,
			"-b:a", AudioBitrate,
			"-movflags", FastStartFlag,
		)
	case model.ContainerWebM:
		args = append(args,
			"-c:v", VideoCodecVP9,
			"-crf", VideoCRFVP9,
			"-b:v", "0",
			"-c:a", AudioCodecOpus,
			"-b:a", AudioBitrate,
		)
	default:
		args = append(args,
			"-c:v", VideoCodecH264,
			"-preset", VideoPreset,
			"-crf", VideoCRFH264,
			"-c:a", AudioCodecAAC,
			"-b:a", AudioBitrate,
			"-movflags", FastStartFlag,
		)
	}

	return append(args,
		"-progress", ProgressPipeTarget, // Progress to stderr
		"-nostats",
		outputPath,
	)
}

// probeDuration gets the duration of a media file in seconds using ffprobe
func (s *Service) probeDuration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath, "-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	if duration <= 0 {
		return 0, errors.New("unknown duration")
	}
	return duration, nil
}

// monitorProgress parses ffmpeg -progress output and returns the last
// diagnostic lines that were not progress keys
func monitorProgress(r io.Reader, totalDuration float64, progress func(float64)) []string {
	var diagnostics []string
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Parse progress line: out_time_us=123456
		if strings.HasPrefix(line, ProgressTimePrefix) {
			timeMicroseconds, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
			if err != nil || totalDuration <= 0 || progress == nil {
				continue
			}
			fraction := float64(timeMicroseconds) / 1e6 / totalDuration
			progress(min(max(fraction, 0), 1))
			continue
		}

		if strings.Contains(line, "=") && !strings.Contains(line, " ") {
			// other progress keys: frame=, bitrate=, progress=continue
			continue
		}

		diagnostics = append(diagnostics, line)
		if len(diagnostics) > maxErrorLines {
			diagnostics = diagnostics[1:]
		}
	}
	return diagnostics
}
