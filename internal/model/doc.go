package model

// Package model defines domain data structures used across the app: tracks
// produced by query resolution, download task snapshots, status enums and the
// error type collaborators use to report failures in their own domain.
