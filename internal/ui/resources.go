package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// AppIcon is the logo file looked up in the working directory
const AppIcon = "ytqueue.png"

// LoadLogoResource loads the logo from AppIcon and falls back to the theme's download icon
func LoadLogoResource() fyne.Resource {
	if res, err := fyne.LoadResourceFromPath(AppIcon); err == nil {
		return res
	}
	return theme.DownloadIcon()
}
