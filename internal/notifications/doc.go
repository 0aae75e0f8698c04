// Package notifications pushes pipeline lifecycle events to an ntfy topic.
//
// The service degrades to a noop when no topic is configured, so callers
// never branch on notification availability.
package notifications
