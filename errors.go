package jcr

import (
	"errors"
	"fmt"

	"github.com/aweris/jcr/internal/apierr"
)

var (
	// ErrNotFound matches a 404 from the server. Create uses it to trigger ancestor creation.
	ErrNotFound = apierr.ErrNotFound
	// ErrRequestFailed matches any other non-success response.
	ErrRequestFailed = apierr.ErrRequestFailed

	ErrUnsupportedPropertyType = errors.New("jcr: unsupported property type")
	ErrInvalidArgument         = errors.New("jcr: invalid argument")
)

// ResponseError carries the method, endpoint, status and body of a failed request.
type ResponseError = apierr.ResponseError

// UnsupportedTypeError is returned when a wire property carries an unknown type tag.
type UnsupportedTypeError struct {
	Property string
	Type     string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("jcr: property %q: type %s is not supported", e.Property, e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedPropertyType
}

// AsResponseError returns the ResponseError wrapped in err, if any.
func AsResponseError(err error) (*ResponseError, bool) {
	var re *ResponseError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}
