// Package main hosts the Loom CLI entrypoint and command graph.
//
// The Cobra-based command tree drives the voice-message pipeline end to end:
// harvesting attachments from the configured channel, combining and staging
// sources through the work queue, generating the program script, assembling
// the episode, and publishing it back. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
