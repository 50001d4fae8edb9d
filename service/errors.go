package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kevinaaaquil/readinglist/models"
)

// ErrResponseTooLarge is wrapped in a *TransportError when a body exceeds the
// client's size limit. The body is never decoded in that case.
var ErrResponseTooLarge = errors.New("response body too large")

// TransportError means the remote store could not be reached or the response
// could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError means the remote store answered with a non-success status.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, models.ErrBookNotFound) work on 404s.
func (e *RemoteError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return models.ErrBookNotFound
	}
	return nil
}

// MalformedResponseError means a success status with a body of the wrong shape.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string { return e.Op + ": malformed response: " + e.Err.Error() }

func (e *MalformedResponseError) Unwrap() error { return e.Err }
