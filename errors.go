package meshbus

import "github.com/coaxial/meshbus/errs"

// Re-exported error kinds. Callers branch on these with errors.Is rather
// than reaching into the errs package directly.
var (
	ErrTimedOut        = errs.ErrTimedOut
	ErrCancelled       = errs.ErrCancelled
	ErrNoHandler       = errs.ErrNoHandler
	ErrDeserialization = errs.ErrDeserialization
	ErrTransport       = errs.ErrTransport
	ErrConfiguration   = errs.ErrConfiguration
)
