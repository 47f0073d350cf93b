package models

import "errors"

// Application-wide standard errors
var (
	ErrNotFound = errors.New("resource not found")

	// Collections & generated content
	ErrInvalidCollection = errors.New("invalid category")
	ErrMissingCollection = errors.New("ai-generated story requires a collection")
	ErrDuplicateStory    = errors.New("active story with this title already exists in collection")
	ErrNotRegenerable    = errors.New("story is not ai-generated for a collection")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidAgeRange   = errors.New("invalid age range")

	// Token Errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
