// Package host describes the services the embedding media engine offers to
// the scripting subsystem.
//
// The scripting subsystem never talks to the engine directly. It consumes a
// small set of interfaces:
//
//   - EventSource: polls the engine for the next event and tears down the
//     engine-side scripting resources
//   - Notifier: forwards a non-terminal event to every loaded script client
//   - Commander: executes an engine command (define-section, enable-section, ...)
//   - LogSink: receives (level, message) pairs
//
// Event identifiers form a closed enumeration whose numeric values match the
// engine's wire values. Only EventNone and EventShutdown influence the
// dispatcher; every other event is an opaque payload forwarded as-is.
//
// Failures reported by any of these services are wrapped in a
// CommunicationError so callers can treat them uniformly:
//
//	if host.IsCommunicationFailure(err) {
//	    // fail-safe: stop polling and shut down
//	}
package host
