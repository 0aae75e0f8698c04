package moments

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"loom/internal/transcript"
)

const (
	// momentCount is how many moments the LLM is asked for.
	momentCount = 2
	// fallbackCount caps how many leading segments the fallback selects.
	fallbackCount = 3
	// FallbackReason is the placeholder reason attached to fallback moments.
	FallbackReason = "Fallback selection"
)

// Moment is a selected time range judged noteworthy, spanning the contiguous
// segment ids [SegmentStartID, SegmentEndID]. Start and End are the first
// segment's start and the last segment's end, in seconds.
type Moment struct {
	SegmentStartID int     `json:"segment_start_id"`
	SegmentEndID   int     `json:"segment_end_id"`
	Reason         string  `json:"reason"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
}

// Duration returns the moment length in seconds.
func (m Moment) Duration() float64 {
	return m.End - m.Start
}

// Completer is the LLM surface the selector needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Selector chooses interesting moments from transcript segments.
type Selector struct {
	completer Completer
	logger    *slog.Logger
}

// NewSelector builds a selector. completer may be nil, in which case every
// selection uses the deterministic fallback.
func NewSelector(completer Completer, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{completer: completer, logger: logger}
}

// Select returns the interesting moments for the given segments. It cannot
// fail: the LLM path is attempted once and any failure switches to the
// fallback. An empty segment sequence yields an empty result without any
// outbound call.
func (s *Selector) Select(ctx context.Context, segments []transcript.Segment) []Moment {
	if len(segments) == 0 {
		return nil
	}
	if s.completer == nil {
		s.logger.Warn("moment selection: no llm configured, using fallback")
		return Fallback(segments)
	}

	userPrompt, err := serializeSegments(segments)
	if err != nil {
		s.logger.Warn("moment selection: serialize segments failed, using fallback", "error", err)
		return Fallback(segments)
	}

	content, err := s.completer.CompleteJSON(ctx, selectionPrompt, userPrompt)
	if err != nil {
		s.logger.Warn("moment selection: llm call failed, using fallback", "error", err)
		return Fallback(segments)
	}

	selected, err := parseMoments(content, len(segments))
	if err != nil {
		s.logger.Warn("moment selection: unusable llm payload, using fallback", "error", err)
		return Fallback(segments)
	}
	for _, m := range selected {
		s.logger.Info("moment selected",
			"segment_start", m.SegmentStartID,
			"segment_end", m.SegmentEndID,
			"start", m.Start,
			"end", m.End,
			"reason", m.Reason,
		)
	}
	return selected
}

// Fallback deterministically selects the first min(3, N) segments as
// single-segment moments with a placeholder reason.
func Fallback(segments []transcript.Segment) []Moment {
	count := fallbackCount
	if len(segments) < count {
		count = len(segments)
	}
	out := make([]Moment, 0, count)
	for _, seg := range segments[:count] {
		out = append(out, Moment{
			SegmentStartID: seg.ID,
			SegmentEndID:   seg.ID,
			Reason:         FallbackReason,
			Start:          seg.Start,
			End:            seg.End,
		})
	}
	return out
}

func serializeSegments(segments []transcript.Segment) (string, error) {
	encoded, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// parseMoments strict-parses the whole response body as a bare JSON array.
// No fence stripping or payload repair happens here: a backend that wraps
// its output in markdown fails parsing and triggers the fallback.
func parseMoments(content string, segmentCount int) ([]Moment, error) {
	var parsed []Moment
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, errEmptySelection
	}
	for _, m := range parsed {
		if err := m.validateShape(segmentCount); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

func (m Moment) validateShape(segmentCount int) error {
	switch {
	case m.SegmentStartID < 0 || m.SegmentEndID >= segmentCount:
		return errMomentOutOfRange
	case m.SegmentStartID > m.SegmentEndID:
		return errMomentInverted
	case strings.TrimSpace(m.Reason) == "":
		return errMomentNoReason
	default:
		return nil
	}
}
