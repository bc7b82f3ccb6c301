package storage

import (
	"github.com/chris/skill-swap/pkg/apperr"
)

// Unavailable reports a failure of the backing store itself.
func Unavailable(err error, format string, args ...any) error {
	return apperr.Wrap(apperr.ErrUnavailable, err, format, args...)
}
