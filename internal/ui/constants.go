package ui

import "time"

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconPlay     = "▶"
	IconPending  = "⏳"
	IconStopped  = "⏹"
	IconDone     = "✔"
	IconClose    = "×"
	IconError    = "❌"
	IconMenu     = "☰"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
)

// Layout sizing (TaskRow / lists)
const (
	StatusLabelWidth  float32 = 96
	ElapsedLabelWidth float32 = 64
	PercentLabelWidth float32 = 48

	RowMinWidth  float32 = 400
	RowMinHeight float32 = 64
	RowDefaultH  float32 = 72

	QueryEntryLines = 3
	LogoSize        = 32
)

// Dialog sizing
const (
	SettingsDialogWidth  float32 = 520
	SettingsDialogHeight float32 = 560
	BatchDialogWidth     float32 = 560
	BatchDialogHeight    float32 = 520
)

// Toast notification sizing and behavior
const (
	ToastWidth    float32 = 300
	ToastHeight   float32 = 120
	ToastMargin   float32 = 20
	ToastAutoHide         = 5 * time.Second
)

// Tooltip behavior
const (
	TooltipAutoHide = 1500 * time.Millisecond
)

// UIRefreshInterval bounds how often progress-only updates redraw the task list
const UIRefreshInterval = 100 * time.Millisecond
