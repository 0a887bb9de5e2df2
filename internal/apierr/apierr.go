// Package apierr holds the errors shared by the store adapters and the root package.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("jcr: not found")
	ErrRequestFailed = errors.New("jcr: request failed")
)

// ResponseError is returned for any non-success response from the content server.
// It matches ErrNotFound for 404 and ErrRequestFailed for every other status.
type ResponseError struct {
	Method string
	URL    string
	Path   string
	Status int
	Body   string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("request %s %s returned status code %d: %s", e.Method, e.URL, e.Status, e.Body)
}

func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRequestFailed:
		return e.Status != http.StatusNotFound
	}
	return false
}

// NotFound builds the error a store returns when path does not exist.
func NotFound(method, path string) *ResponseError {
	return &ResponseError{Method: method, URL: path, Path: path, Status: http.StatusNotFound, Body: "node not found"}
}

// IsNotFound reports whether err is a 404-equivalent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}
