// Package tagging writes title, artist, album, and cover art into downloaded
// files: ID3v2 for mp3 and iTunes atoms for m4a/mp4.
//
// Metadata starts from the YouTube title and uploader and may be refined
// by an optional Enricher such as MusicBrainzEnricher.
package tagging
