package script

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// PrettifySpeaker resolves a raw platform username to a display name.
// A configured override wins; otherwise separators become spaces and the
// result is title-cased. Prettification happens before script generation,
// so voice assignment keys on the display name: a many-to-one override map
// deliberately collapses aliases of one person into a single voice slot.
func PrettifySpeaker(username string, overrides map[string]string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return ""
	}
	if display, ok := overrides[username]; ok {
		if display = strings.TrimSpace(display); display != "" {
			return display
		}
	}
	cleaned := strings.NewReplacer("_", " ", ".", " ", "-", " ").Replace(username)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return username
	}
	return titleCaser.String(cleaned)
}
