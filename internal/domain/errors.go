package domain

import "errors"

var (
	// ErrNotFound signals a referenced tenant config, job or record is absent.
	ErrNotFound = errors.New("not found")

	// ErrForbidden signals an operation against an inactive tenant instance.
	ErrForbidden = errors.New("forbidden action")

	// ErrConfigMissing signals a record with an unresolved tenant reference;
	// scan passes log and skip it.
	ErrConfigMissing = errors.New("tenant configuration missing")
)
