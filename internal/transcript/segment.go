package transcript

import (
	"context"
	"fmt"
)

// Segment is one contiguous span of transcribed speech. IDs are 0-based and
// contiguous within a Result; Start and End are seconds from the start of
// the source audio.
type Segment struct {
	ID    int     `json:"id"`
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is the output of transcribing one audio source.
type Result struct {
	Text     string    `json:"full_text"`
	Segments []Segment `json:"segments"`
}

// Transcriber converts one audio file into ordered, timestamped segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}

// Validate checks the segment-sequence invariants: contiguous 0-based IDs,
// start < end per segment, and no overlap between neighbors.
func (r Result) Validate() error {
	prevEnd := 0.0
	for i, seg := range r.Segments {
		if seg.ID != i {
			return fmt.Errorf("transcript: segment %d has id %d, want %d", i, seg.ID, i)
		}
		if seg.Start >= seg.End {
			return fmt.Errorf("transcript: segment %d has start %.3f >= end %.3f", i, seg.Start, seg.End)
		}
		if seg.Start < prevEnd {
			return fmt.Errorf("transcript: segment %d starts at %.3f before previous end %.3f", i, seg.Start, prevEnd)
		}
		prevEnd = seg.End
	}
	return nil
}
