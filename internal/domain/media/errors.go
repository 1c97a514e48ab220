package media

import "errors"

var (
	ErrFileNotFound = errors.New("file not found")
	ErrEmptyPayload = errors.New("media payload is empty")
	ErrMissingName  = errors.New("file name is required")
	ErrBadDataURI   = errors.New("malformed data URI payload")
	ErrBadRequest   = errors.New("request must identify a file, a project, or a featured image")
)
