// Package textutil provides text processing utilities for snippet and
// artifact naming.
//
// The primary use cases are:
//   - Sanitizing LLM-provided moment reasons into filesystem-safe tokens
//   - Sanitizing display strings for safe filesystem use
package textutil
