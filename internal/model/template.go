package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// File name template tokens
const (
	TokenNumber = "$num"
	TokenID     = "$id"
	TokenTitle  = "$title"
	TokenAuthor = "$author"
)

// DefaultFileNameTemplate is used when the user did not configure one
const DefaultFileNameTemplate = TokenTitle

// MaxFileNameLength caps the base name length (without extension)
const MaxFileNameLength = 180

// FileNameTemplate builds file names for tracks
type FileNameTemplate string

// Apply renders the template for a track. position is 1-based and only
// rendered when greater than zero; total controls zero padding.
func (t FileNameTemplate) Apply(track Track, position, total int, container Container) string {
	template := string(t)
	if strings.TrimSpace(template) == "" {
		template = DefaultFileNameTemplate
	}

	number := ""
	if position > 0 {
		width := len(strconv.Itoa(max(total, position)))
		number = fmt.Sprintf("%0*d", width, position)
	}

	replacer := strings.NewReplacer(
		TokenNumber, number,
		TokenID, track.ID,
		TokenTitle, track.Title,
		TokenAuthor, track.Author,
	)

	name := replacer.Replace(template)
	// Drop separators left dangling by empty tokens, e.g. "$num - $title" without a number
	name = strings.Trim(name, " -_")
	name = SanitizeFileName(name)
	if name == "" {
		name = SanitizeFileName(track.ID)
	}
	return name + container.Extension()
}

// SanitizeFileName replaces characters that are invalid in file names on
// common file systems and trims the result to MaxFileNameLength runes.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	result := strings.Join(strings.Fields(b.String()), " ")
	result = strings.TrimRight(result, ". ")

	runes := []rune(result)
	if len(runes) > MaxFileNameLength {
		result = strings.TrimSpace(string(runes[:MaxFileNameLength]))
	}
	return result
}
