package queryclient

import (
	"fmt"
	"net/http"
)

// TransportError is a failed round trip to the query service: the request
// never completed, the service answered with a non-2xx status, or the body
// could not be decoded.
type TransportError struct {
	StatusCode int    // 0 when no response was received
	Message    string // server-supplied message, if any
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("query service unreachable: %v", e.Err)
	case e.StatusCode >= 200 && e.StatusCode < 300:
		return fmt.Sprintf("malformed response from query service: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("query service returned %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("query service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Temporary reports whether repeating the request may succeed.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// errorBody is the JSON error shape returned by the query service.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
