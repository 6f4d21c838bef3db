package ui

// Package ui contains the Fyne-based desktop user interface for the application.
// It wires user interactions to the download service, renders the task queue and
// aggregate progress, and implements the placement dialogs the service asks for.
// All UI strings are localized via Localization.
