package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when the provider reports a failed
	// prediction or a general API error.
	ErrGenerationFailed = errors.New("generation request failed")

	// ErrEmptyResult is returned when the provider completes a prediction
	// without producing an output URL.
	ErrEmptyResult = errors.New("generation produced no output")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
