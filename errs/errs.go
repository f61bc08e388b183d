// Package errs defines the sentinel error kinds of the bus. Timed-out and
// cancelled command slots carry ErrTimedOut or ErrCancelled, and startup
// failures from New wrap ErrConfiguration with %w, so callers can branch
// with errors.Is. Marshal errors from Stream, Send and Publish are returned
// unwrapped.
package errs

import "errors"

var (
	// ErrTimedOut is returned when a Stream/Send awaiter's deadline elapses
	// before a reply arrives.
	ErrTimedOut = errors.New("meshbus: command timed out")

	// ErrCancelled is returned when the caller's context is cancelled before
	// a reply arrives.
	ErrCancelled = errors.New("meshbus: command cancelled")

	// ErrNoHandler names the no-handler error kind. No function in this
	// module returns it: a peer with no handler for a command topic replies
	// with an empty payload, which Stream decodes as a zero-value Resp.
	ErrNoHandler = errors.New("meshbus: no handler registered for command")

	// ErrDeserialization names the decode-failure error kind. No function in
	// this module returns it: beacon and event payloads that fail to decode
	// are logged and dropped, and Stream drops a reply slot it cannot decode.
	ErrDeserialization = errors.New("meshbus: payload deserialization failed")

	// ErrTransport names the socket-failure error kind. No function in this
	// module returns it: socket send and receive failures are logged.
	ErrTransport = errors.New("meshbus: transport failure")

	// ErrConfiguration is returned from New when startup fails, for example
	// because no port in the probe window could be bound.
	ErrConfiguration = errors.New("meshbus: configuration error")
)
