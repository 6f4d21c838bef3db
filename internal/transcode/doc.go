// Package transcode converts downloaded streams into the requested
// container by running ffmpeg, reporting conversion progress parsed from
// ffmpeg's -progress output.
package transcode
