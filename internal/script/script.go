package script

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Kind discriminates the two entry shapes.
type Kind string

const (
	KindSpeech   Kind = "speech"
	KindAudioRef Kind = "audio_ref"
)

// Entry is one line of the program. Exactly one shape is populated:
// speech (Speaker + Text) or audio reference (Snippet path).
type Entry struct {
	Kind    Kind
	Speaker string
	Text    string
	Snippet string
}

// FormatError reports the first invalid entry in a script.
type FormatError struct {
	Index  int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("script entry %d: %s", e.Index, e.Reason)
}

// MarshalJSON renders the entry back into its wire record shape.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Kind == KindAudioRef {
		return json.Marshal(map[string]string{"snippet": e.Snippet})
	}
	return json.Marshal(map[string]string{"speaker": e.Speaker, "text": e.Text})
}

// rawEntry matches the JSON record shape before classification. Pointers
// distinguish absent keys from empty values.
type rawEntry struct {
	Speaker *string `json:"speaker"`
	Text    *string `json:"text"`
	Snippet *string `json:"snippet"`
}

// Parse decodes a JSON array of script records and validates every entry.
// The first invalid entry aborts parsing; no partial script is returned.
func Parse(data []byte) ([]Entry, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("script: not a JSON array: %w", err)
	}

	entries := make([]Entry, 0, len(raws))
	for i, raw := range raws {
		entry, err := classify(i, raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseFile reads and parses a script document from disk.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", path, err)
	}
	return Parse(data)
}

func classify(index int, raw json.RawMessage) (Entry, error) {
	var empty Entry
	var rec rawEntry
	if err := json.Unmarshal(raw, &rec); err != nil {
		return empty, &FormatError{Index: index, Reason: "entry is not an object"}
	}

	switch {
	case rec.Speaker != nil && rec.Text != nil:
		speaker := strings.TrimSpace(*rec.Speaker)
		text := strings.TrimSpace(*rec.Text)
		if speaker == "" {
			return empty, &FormatError{Index: index, Reason: "speech entry has empty speaker"}
		}
		if text == "" {
			return empty, &FormatError{Index: index, Reason: "speech entry has empty text"}
		}
		return Entry{Kind: KindSpeech, Speaker: speaker, Text: text}, nil
	case rec.Snippet != nil:
		snippet := strings.TrimSpace(*rec.Snippet)
		if snippet == "" {
			return empty, &FormatError{Index: index, Reason: "audio reference has empty snippet path"}
		}
		return Entry{Kind: KindAudioRef, Snippet: snippet}, nil
	default:
		return empty, &FormatError{Index: index, Reason: "entry is neither a speech line nor a snippet reference"}
	}
}
