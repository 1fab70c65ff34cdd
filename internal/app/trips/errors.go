package trips

import "errors"

var (
	// ErrNotFound indicates the trip does not exist. It is only used on read
	// and delete paths, where existence of a record is not sensitive.
	ErrNotFound = errors.New("trip not found")

	// ErrNotAuthorized indicates the caller lacks the required role. It also
	// covers a client-supplied trip ID that matches no record on a save, so
	// the save path cannot be used to probe which IDs exist.
	ErrNotAuthorized = errors.New("not authorized")
)
