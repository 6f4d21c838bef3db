package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ytget/ytqueue/internal/download"
)

type taskResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	FilePath   string     `json:"file_path"`
	Status     string     `json:"status"`
	Progress   float64    `json:"progress"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type progressResponse struct {
	Fraction float64 `json:"fraction"`
	Known    bool    `json:"known"`
}

// newRouter exposes health, metrics and a read-only view of the queue
func newRouter(svc download.Downloader) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/tasks", func(w http.ResponseWriter, _ *http.Request) {
		snapshots := svc.Snapshots()
		tasks := make([]taskResponse, 0, len(snapshots))
		for _, s := range snapshots {
			tasks = append(tasks, taskResponse{
				ID:         s.ID,
				Title:      s.Track.DisplayTitle(),
				URL:        s.Track.URL(),
				FilePath:   s.FilePath,
				Status:     s.Status.String(),
				Progress:   s.Progress,
				Error:      s.LastError,
				StartedAt:  optionalTime(s.StartedAt),
				FinishedAt: optionalTime(s.FinishedAt),
			})
		}
		writeJSON(w, http.StatusOK, tasks)
	})

	r.Get("/progress", func(w http.ResponseWriter, _ *http.Request) {
		fraction, ok := svc.Progress()
		writeJSON(w, http.StatusOK, progressResponse{Fraction: fraction, Known: ok})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
