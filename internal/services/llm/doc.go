// Package llm provides an OpenRouter chat client used for moment selection
// and script generation.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title, and a
// request timeout.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive the raw response content.
// Client.HealthCheck: verify API key and model availability.
//
// # Failure Behaviour
//
// The client issues exactly one request per call. There is no retry or
// backoff: moment selection recovers from any failure through its
// deterministic fallback, and script generation treats any failure as fatal,
// so retrying inside the transport would only delay both outcomes.
package llm
