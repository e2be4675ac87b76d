package proxy

import "errors"

var (
	// ErrQueryTimeout is returned when no response arrives within the
	// configured timeout.
	ErrQueryTimeout = errors.New("query timed out")

	// ErrInvalidResponse is returned when the response is not a well-formed
	// HTTP message (missing status line or header/body delimiter).
	ErrInvalidResponse = errors.New("invalid response")

	// ErrPayloadMismatch is returned when the number of bytes written to the
	// connection does not match the measured payload length.
	ErrPayloadMismatch = errors.New("payload serialization error")
)

// StatusError is returned when the proxy answers with a non-2xx status.
// The error text is the raw status line, unmodified.
type StatusError struct {
	Code int
	Line string
}

func (e *StatusError) Error() string {
	return e.Line
}

// ServerError is an application-level error embedded in the response
// document, possibly under an accepted HTTP status.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}
