package service

import "errors"

var (
	// ErrUnauthorized covers missing, malformed and unresolvable
	// credentials, and principals acting on profiles they do not own.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict is a uniqueness violation on create or update.
	ErrConflict = errors.New("profile name or email not available")

	// ErrValidation marks malformed request payloads.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedMime rejects uploads outside the accepted image set
	// or whose declared type contradicts the sniffed bytes.
	ErrUnsupportedMime = errors.New("not an accepted MIME type")

	// ErrCustomData marks image custom data that is not parseable JSON.
	ErrCustomData = errors.New("custom data cannot be parsed as a JSON")
)
