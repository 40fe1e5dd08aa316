package provider

import (
	"errors"
	"fmt"
)

// ErrUnsupportedTransport is matched by every UnsupportedTransportError.
var ErrUnsupportedTransport = errors.New("unsupported transport")

// UnsupportedTransportError is returned when the transport selected for a
// method implements none of Request, SendAsync or Send. It is raised before
// any network I/O.
type UnsupportedTransportError struct {
	Method string
	Write  bool
}

func (e *UnsupportedTransportError) Error() string {
	path := "read"
	if e.Write {
		path = "write"
	}
	return fmt.Sprintf("%s: %s transport for %q implements none of Request, SendAsync, Send",
		ErrUnsupportedTransport, path, e.Method)
}

func (e *UnsupportedTransportError) Unwrap() error { return ErrUnsupportedTransport }
