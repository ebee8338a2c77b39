package domain

import "errors"

// Error kinds shared by every layer. Wrap with fmt.Errorf("...: %w", Err...)
// and match with errors.Is.
var (
	ErrDecode             = errors.New("malformed request")
	ErrValidation         = errors.New("invalid user")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("email already exists")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
