package turn

import "errors"

var (
	// ErrMalformedDetection indicates the upstream payload failed schema
	// validation at the registry boundary.
	ErrMalformedDetection = errors.New("malformed detection payload")
)
