package script

import (
	"errors"
)

// AssignVoices maps each distinct speaker to a voice from the pool by
// first-appearance order: the i-th distinct speaker receives
// pool[i mod len(pool)]. Audio-reference entries contribute no speaker.
// The mapping is a pure function of the script; nothing is persisted.
func AssignVoices(entries []Entry, pool []string) (map[string]string, error) {
	if len(pool) == 0 {
		return nil, errors.New("voice assignment: empty voice pool")
	}
	assigned := make(map[string]string)
	next := 0
	for _, entry := range entries {
		if entry.Kind != KindSpeech {
			continue
		}
		if _, seen := assigned[entry.Speaker]; seen {
			continue
		}
		assigned[entry.Speaker] = pool[next%len(pool)]
		next++
	}
	return assigned, nil
}

// Speakers returns the distinct speakers in first-appearance order.
func Speakers(entries []Entry) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range entries {
		if entry.Kind != KindSpeech {
			continue
		}
		if _, ok := seen[entry.Speaker]; ok {
			continue
		}
		seen[entry.Speaker] = struct{}{}
		out = append(out, entry.Speaker)
	}
	return out
}
