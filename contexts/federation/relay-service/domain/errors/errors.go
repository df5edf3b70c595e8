package errors

import "errors"

var (
	ErrInvalidForwardInput  = errors.New("invalid forward input")
	ErrInvalidFollowerInput = errors.New("invalid follower input")
)
