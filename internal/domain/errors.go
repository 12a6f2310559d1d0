package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration     = errors.New("invalid resize configuration")
	ErrSourceUnavailable = errors.New("source image unavailable")
	ErrDecodeFailure     = errors.New("image decode failed")
	ErrEncodeFailure     = errors.New("image encode failed")
	ErrUnknownProfile    = errors.New("unknown profile")
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrInvalidMetadata   = errors.New("invalid metadata strategy")
)

// ProfileError is a failure scoped to a single profile of a resize request.
type ProfileError struct {
	Profile ProfileName
	Op      string
	Err     error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("profile %s: %s: %v", e.Profile, e.Op, e.Err)
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

func NewProfileError(profile ProfileName, op string, err error) *ProfileError {
	return &ProfileError{Profile: profile, Op: op, Err: err}
}
