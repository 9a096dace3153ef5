package runtime

import (
	"errors"
	"fmt"

	dockerclient "github.com/docker/docker/client"
)

// ConnectionError reports a Docker endpoint that could not be reached. It is
// surfaced to callers as a user-facing warning and is never cached.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to Docker at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err wraps a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// APIError wraps a failure reported by the Docker daemon for an operation on
// a container that does exist. Terminal sessions and batch actions report it
// inline and continue.
type APIError struct {
	Op  string
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsAPIError reports whether err wraps an APIError.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// IsNotFound reports whether err means the referenced container is gone.
func IsNotFound(err error) bool {
	return err != nil && dockerclient.IsErrNotFound(err)
}
