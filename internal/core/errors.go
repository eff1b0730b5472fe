package core

// Error codes surfaced to clients at the protocol level. The core
// itself performs no validation; these cover envelope-level problems
// caught by the transport mapper.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidMessage = "invalid_message"
)
