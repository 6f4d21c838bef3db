// Package download implements the download orchestrator: a FIFO admission
// gate with live-resizable capacity, a weighted progress multiplexer, the
// per-task lifecycle controller and the Service that owns the ordered task
// collection. Query resolution, byte transfer, tagging and presentation are
// supplied by the caller through the interfaces in interfaces.go.
package download
