package aretrails

import (
	"errors"
	"fmt"
)

// ErrTransport marks every failure to obtain a response body: network
// errors and non-2xx statuses alike.
var ErrTransport = errors.New("transport error")

// HTTPError is returned when the API answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	body := string(e.Body)
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.StatusCode, body)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrTransport
}

// NetworkError wraps DNS, connection and timeout failures.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "execute request: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrTransport
}
