package witness

import "errors"

// ErrNoSuchRequest is returned by Acknowledge when no pending
// AcknowledgmentRequest exists for the given statement.
var ErrNoSuchRequest = errors.New("witness: no pending acknowledgment request for statement")
