package request

import (
	"errors"
	"net/http"
)

// ErrInternalServer is the message returned to a client when a handler
// panics.
var ErrInternalServer = errors.New("internal server error")

// ClientWriter wraps an http.ResponseWriter and records the status code
// written, so middleware can report it after the handler has run.
type ClientWriter struct {
	http.ResponseWriter

	statusCode int
}

// NewClientWriter creates a new ClientWriter.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
	}
}

// WriteHeader implements the http.ResponseWriter interface.
func (w *ClientWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write implements the http.ResponseWriter interface.
func (w *ClientWriter) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// StatusCode returns the status code written to the client. It defaults to
// 200 when the handler wrote a body without an explicit status.
func (w *ClientWriter) StatusCode() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}
