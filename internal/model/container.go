package model

import (
	"path/filepath"
	"strings"
)

// Container is the media container (file extension without the dot)
type Container string

const (
	ContainerMP3  Container = "mp3"
	ContainerM4A  Container = "m4a"
	ContainerMP4  Container = "mp4"
	ContainerWebM Container = "webm"
)

// Containers lists the supported output containers in display order
var Containers = []Container{ContainerMP3, ContainerM4A, ContainerMP4, ContainerWebM}

// IsAudioOnly returns true for containers that only carry an audio stream
func (c Container) IsAudioOnly() bool {
	return c == ContainerMP3 || c == ContainerM4A
}

// Extension returns the file extension including the leading dot
func (c Container) Extension() string {
	return "." + string(c)
}

// ContainerFromPath infers the container from the file extension of path
func ContainerFromPath(path string) Container {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, c := range Containers {
		if string(c) == ext {
			return c
		}
	}
	return ""
}
