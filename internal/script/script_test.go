package script

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseValidScript(t *testing.T) {
	data := []byte(`[
		{"speaker": "Host", "text": "Welcome back!"},
		{"snippet": "snippets/mike/1_funny_story.mp3"},
		{"speaker": "Mike", "text": "Thanks for having me."}
	]`)
	entries, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Kind != KindSpeech || entries[0].Speaker != "Host" {
		t.Fatalf("entry 0 = %+v", entries[0])
	}
	if entries[1].Kind != KindAudioRef || entries[1].Snippet != "snippets/mike/1_funny_story.mp3" {
		t.Fatalf("entry 1 = %+v", entries[1])
	}
}

func TestParseTrimsFields(t *testing.T) {
	entries, err := Parse([]byte(`[{"speaker": " Sarah ", "text": " hi "}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if entries[0].Speaker != "Sarah" || entries[0].Text != "hi" {
		t.Fatalf("fields not trimmed: %+v", entries[0])
	}
}

func TestParseRejectsWithIndex(t *testing.T) {
	cases := []struct {
		name      string
		data      string
		wantIndex int
	}{
		{"non-object entry", `[{"speaker":"A","text":"x"}, 42]`, 1},
		{"empty speaker", `[{"speaker":"  ","text":"x"}]`, 0},
		{"empty text", `[{"speaker":"A","text":""}]`, 0},
		{"empty snippet", `[{"speaker":"A","text":"x"},{"snippet":"  "}]`, 1},
		{"unrecognized shape", `[{"speaker":"A","text":"x"},{"speaker":"B"}]`, 1},
		{"null entry", `[null]`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if formatErr.Index != tc.wantIndex {
				t.Fatalf("error index = %d, want %d", formatErr.Index, tc.wantIndex)
			}
		})
	}
}

func TestParseAllOrNothing(t *testing.T) {
	entries, err := Parse([]byte(`[{"speaker":"A","text":"x"},{"bogus":true},{"speaker":"B","text":"y"}]`))
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if entries != nil {
		t.Fatal("no partial script may be returned")
	}
}

func TestParseNotAnArray(t *testing.T) {
	if _, err := Parse([]byte(`{"speaker":"A"}`)); err == nil {
		t.Fatal("expected error for non-array document")
	}
}

func TestEntryMarshalRoundTrip(t *testing.T) {
	entries := []Entry{
		{Kind: KindSpeech, Speaker: "Host", Text: "Welcome"},
		{Kind: KindAudioRef, Snippet: "clip.mp3"},
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := Parse(encoded)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if decoded[0] != entries[0] || decoded[1] != entries[1] {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}
