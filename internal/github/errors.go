package github

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVersionFormat is returned when the latest release name is not a non-negative integer.
	ErrInvalidVersionFormat = errors.New("invalid version format")

	// ErrBranchAlreadyExists is returned when the release branch for a version was created earlier.
	ErrBranchAlreadyExists = errors.New("branch already exists")

	// ErrExistingPRNotFound is returned when GitHub reports a duplicate pull request
	// but the open pull request query does not return it.
	ErrExistingPRNotFound = errors.New("existing release pull request not found")
)

// TransportError wraps connection failures and timeouts. HTTP status codes never produce one.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError reports a status code the calling operation does not handle.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Message)
}

// PRCreationError is returned when GitHub refuses to open the release pull request
// for any reason other than an existing one.
type PRCreationError struct {
	StatusCode int
	Message    string
}

func (e *PRCreationError) Error() string {
	return fmt.Sprintf("failed to create release pull request (status %d): %s", e.StatusCode, e.Message)
}

// CommitFetchError is recorded on a reconciliation when the release pull request's
// commits could not be listed.
type CommitFetchError struct {
	PR  int
	Err error
}

func (e *CommitFetchError) Error() string {
	return fmt.Sprintf("failed to list commits of pull request #%d: %v", e.PR, e.Err)
}

func (e *CommitFetchError) Unwrap() error {
	return e.Err
}
