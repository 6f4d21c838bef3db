package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/transcode"
)

// Fetch constants
const (
	PartFileSuffix     = ".part"
	copyBufferSize     = 32 * 1024
	downloadShareRatio = 0.8
)

// ErrNoFormat is returned when a video has no stream usable for the container
var ErrNoFormat = errors.New("no suitable stream")

// Fetcher downloads a track's stream into a file, converting it with
// ffmpeg when the stream's native container differs from the requested one.
type Fetcher struct {
	client    *youtube.Client
	converter transcode.Converter
	logger    *slog.Logger

	// replaceable in tests
	getVideo   func(ctx context.Context, videoID string) (*youtube.Video, error)
	openStream func(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

var _ download.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher. converter may be nil, in which case only
// streams that already match the requested container can be saved.
func NewFetcher(client *youtube.Client, converter transcode.Converter, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &youtube.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		client:     client,
		converter:  converter,
		logger:     logger,
		getVideo:   client.GetVideoContext,
		openStream: client.GetStreamContext,
	}
}

// Fetch writes track to filePath in the container named by its extension.
// Bytes go to filePath+".part" first; filePath appears only on success.
func (f *Fetcher) Fetch(ctx context.Context, filePath string, track model.Track, progress download.ProgressSink) error {
	container := model.ContainerFromPath(filePath)
	if container == "" {
		return fmt.Errorf("unsupported output container: %s", filePath)
	}
	report := func(fraction float64) {
		if progress != nil {
			progress.Report(fraction)
		}
	}

	video, err := f.getVideo(ctx, track.ID)
	if err != nil {
		return WrapSourceError(err, "fetching video metadata")
	}

	format, native := selectFormat(video.Formats, container)
	if format == nil {
		return model.NewSourceError("No downloadable stream for "+string(container), ErrNoFormat)
	}
	convert := native != container
	if convert && f.converter == nil {
		return fmt.Errorf("converting %s to %s requires ffmpeg", native, container)
	}

	share := 1.0
	if convert {
		share = downloadShareRatio
	}

	partPath := filePath + PartFileSuffix
	defer os.Remove(partPath)

	f.logger.Debug("Downloading stream",
		"video_id", track.ID,
		"itag", format.ItagNo,
		"mime", format.MimeType,
		"convert", convert,
	)
	if err := f.download(ctx, video, format, partPath, func(fraction float64) {
		report(fraction * share)
	}); err != nil {
		return err
	}

	if !convert {
		if err := os.Rename(partPath, filePath); err != nil {
			return fmt.Errorf("failed to move download into place: %w", err)
		}
		report(1)
		return nil
	}

	return f.converter.Convert(ctx, partPath, filePath, container, func(fraction float64) {
		report(share + fraction*(1-share))
	})
}

// download copies the stream into path, retrying once without chunked
// requests when YouTube answers 403 to the ranged download.
func (f *Fetcher) download(ctx context.Context, video *youtube.Video, format *youtube.Format, path string, report func(float64)) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	stream, size, err := f.openStream(ctx, video, format)
	if err != nil {
		return WrapSourceError(err, "starting stream")
	}

	_, err = copyWithProgress(ctx, file, stream, size, report)
	stream.Close()
	if err != nil && isUnexpectedStatus(err, http.StatusForbidden) {
		f.logger.Warn("Chunked download rejected, retrying with single request", "video_id", video.ID)
		if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("retry failed: %w", seekErr)
		}
		if truncErr := file.Truncate(0); truncErr != nil {
			return fmt.Errorf("retry failed: %w", truncErr)
		}

		formatSingle := *format
		formatSingle.ContentLength = 0
		stream, size, err = f.openStream(ctx, video, &formatSingle)
		if err != nil {
			return WrapSourceError(err, "retrying stream")
		}
		_, err = copyWithProgress(ctx, file, stream, size, report)
		stream.Close()
	}
	if err != nil {
		return WrapSourceError(err, "downloading stream")
	}
	return file.Close()
}

// copyWithProgress copies src to dst, checking ctx between reads and
// reporting written/size when size is known
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, size int64, report func(float64)) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var total int64

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
			nr, err := src.Read(buf)
			if nr > 0 {
				nw, werr := dst.Write(buf[0:nr])
				if nw > 0 {
					total += int64(nw)
					if size > 0 && report != nil {
						report(min(float64(total)/float64(size), 1))
					}
				}
				if werr != nil {
					return total, werr
				}
				if nr != nw {
					return total, io.ErrShortWrite
				}
			}
			if err != nil {
				if err == io.EOF {
					return total, nil
				}
				return total, err
			}
		}
	}
}

func isUnexpectedStatus(err error, code int) bool {
	var statusErr youtube.ErrUnexpectedStatusCode
	if errors.As(err, &statusErr) {
		return int(statusErr) == code
	}
	return false
}

// selectFormat picks the best stream for container and reports the
// container the stream can be saved as without conversion.
// Audio containers take audio-only streams, falling back to muxed ones;
// video containers take muxed streams only.
func selectFormat(formats youtube.FormatList, container model.Container) (*youtube.Format, model.Container) {
	var best *youtube.Format
	if container.IsAudioOnly() {
		best = pickFormat(formats, container, isAudioOnlyFormat, betterAudioFormat)
	}
	if best == nil {
		best = pickFormat(formats, container, isMuxedFormat, betterVideoFormat)
	}
	if best == nil {
		return nil, ""
	}
	return best, nativeContainer(best.MimeType)
}

func pickFormat(formats youtube.FormatList, container model.Container, usable func(*youtube.Format) bool, better func(a, b *youtube.Format) bool) *youtube.Format {
	var best *youtube.Format
	bestNative := false
	for i := range formats {
		format := &formats[i]
		if !usable(format) {
			continue
		}
		native := nativeContainer(format.MimeType) == container
		switch {
		case best == nil:
		case native != bestNative:
			if !native {
				continue
			}
		case !better(format, best):
			continue
		}
		best, bestNative = format, native
	}
	return best
}

func isAudioOnlyFormat(f *youtube.Format) bool {
	return f.AudioChannels > 0 && f.Width == 0 && f.Height == 0
}

func isMuxedFormat(f *youtube.Format) bool {
	return f.AudioChannels > 0 && f.Width > 0 && f.Height > 0
}

func bitrateForFormat(f *youtube.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return f.Bitrate
}

func betterAudioFormat(candidate, current *youtube.Format) bool {
	return bitrateForFormat(candidate) > bitrateForFormat(current)
}

func betterVideoFormat(candidate, current *youtube.Format) bool {
	if candidate.Height != current.Height {
		return candidate.Height > current.Height
	}
	return bitrateForFormat(candidate) > bitrateForFormat(current)
}

// nativeContainer maps a stream MIME type to the container it can be saved as
func nativeContainer(mimeType string) model.Container {
	mime, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(mime) {
	case "audio/mp4":
		return model.ContainerM4A
	case "video/mp4":
		return model.ContainerMP4
	case "audio/webm", "video/webm":
		return model.ContainerWebM
	case "audio/mpeg":
		return model.ContainerMP3
	}
	return ""
}
