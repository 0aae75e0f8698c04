// Package moments selects the interesting time ranges of a transcript.
//
// The selector asks an LLM to pick a small number of ranges, each possibly
// spanning several contiguous segments. Selection is a total function: any
// call failure, unparseable payload, or empty result falls back to a
// deterministic choice of the first segments, so the pipeline never stalls
// on LLM trouble.
package moments
