package common

import "errors"

var (
	ErrorInvalidValue    = errors.New("invalid value")
	ErrorInvalidFraction = errors.New("fraction parameter must be between 0 and 1")
	ErrorSampleTooSmall  = errors.New("the sample must have at least 2 elements")
)
