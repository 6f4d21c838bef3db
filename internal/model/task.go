package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DownloadTask is a read-only snapshot of a queued or running download
type DownloadTask struct {
	ID         string
	Track      Track
	FilePath   string     // target file path
	Status     TaskStatus // lifecycle state
	Progress   float64    // 0.0 to 1.0
	LastError  string     // set only when Status is Failed
	CreatedAt  time.Time
	StartedAt  time.Time // zero until a download slot was acquired
	FinishedAt time.Time // zero until a terminal state was reached
}

// Percent returns progress as an integer percentage
func (dt *DownloadTask) Percent() int {
	p := int(dt.Progress*100 + 0.5)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Container returns the container implied by the target path
func (dt *DownloadTask) Container() Container {
	return ContainerFromPath(dt.FilePath)
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.Track.Title != "" && !strings.HasPrefix(dt.Track.Title, "http") {
		return dt.Track.DisplayTitle()
	}

	if dt.FilePath != "" {
		filename := filepath.Base(strings.ReplaceAll(dt.FilePath, "\\", "/"))
		if idx := strings.LastIndex(filename, "."); idx > 0 {
			filename = filename[:idx]
		}
		if filename != "" && filename != "." && filename != "/" {
			return filename
		}
	}

	if dt.Track.ID == "" {
		return ""
	}
	return dt.Track.URL()
}

// GetElapsedString returns how long the download has been running (or ran), or "—"
func (dt *DownloadTask) GetElapsedString() string {
	if dt.StartedAt.IsZero() {
		return "—"
	}
	end := dt.FinishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return FormatDuration(end.Sub(dt.StartedAt))
}

// FormatDuration formats d as mm:ss or hh:mm:ss
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
