package history

import "errors"

// ErrInvalidDocument reports a malformed history document.
var ErrInvalidDocument = errors.New("invalid history document")
