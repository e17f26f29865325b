package interfaces

import "errors"

var (
	// ErrNotFound is returned by repositories when the addressed record does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a create collides with an existing record
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument is returned when a repository call is missing a required key
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorageUnavailable is returned when the backing store cannot be reached or rejects the operation
	ErrStorageUnavailable = errors.New("storage unavailable")
)
