// Package script models the podcast script: an ordered list of entries that
// are either a spoken line attributed to a speaker or a reference to a
// pre-recorded snippet file.
//
// Parsing is strict and all-or-nothing. A malformed entry midway through a
// script would silently drop audio content if tolerated, so the first
// invalid entry aborts with a FormatError naming its index, before any
// synthesis cost is incurred.
package script
