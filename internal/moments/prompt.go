package moments

import "errors"

var (
	errEmptySelection   = errors.New("llm returned no moments")
	errMomentOutOfRange = errors.New("moment references unknown segment id")
	errMomentInverted   = errors.New("moment segment range is inverted")
	errMomentNoReason   = errors.New("moment has no reason")
)

// selectionPrompt instructs the model on the moment-selection task. The user
// message carries the serialized segments.
const selectionPrompt = `You are analyzing an audio transcript to find the most interesting parts for a podcast about a group of friends. Each transcript is about one person's life updates over the last week or month.

The user message contains the transcript segments with ids and timestamps in JSON.

You can select interesting moments that may span multiple contiguous segments (for example, from segment 2 to segment 4). For each interesting moment, specify the range of segment ids it covers, and use the start time of the first segment and the end time of the last segment in the range.

Identify the 2 most interesting/engaging moments that would make good audio clips. Look for:
- Really funny moments
- Big life updates

Return ONLY a bare JSON array, no markdown fences, like this:
[
  {
    "segment_start_id": 2,
    "segment_end_id": 4,
    "reason": "Funny story about cooking disaster",
    "start": 15.2,
    "end": 28.7
  },
  {
    "segment_start_id": 5,
    "segment_end_id": 6,
    "reason": "Exciting hiking adventure",
    "start": 45.1,
    "end": 52.3
  }
]`
