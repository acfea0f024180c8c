package domain

import "errors"

var (
	// ErrValidation marks errors caused by invalid row or payload input.
	ErrValidation = errors.New("validation error")

	// ErrMediaNotFound marks upload attempts for files that do not exist locally.
	ErrMediaNotFound = errors.New("media file not found")
)
