package session

import "github.com/yndnr/sesskeep/internal/core/domain"

// Errors returned by this package. Compare with errors.Is.
var (
	ErrConfiguration     = domain.ErrConfiguration
	ErrUnsupportedDriver = domain.ErrUnsupportedDriver
	ErrInvalidKey        = domain.ErrInvalidKey
	ErrStorageIO         = domain.ErrStorageIO
	ErrDecryption        = domain.ErrDecryption
	ErrDriverClosed      = domain.ErrDriverClosed
	ErrInvalidArgument   = domain.ErrInvalidArgument
)
