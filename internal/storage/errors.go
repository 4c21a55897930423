package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Storage errors.
var (
	ErrNotFound           = errors.New("record not found")
	ErrForbidden          = errors.New("not permitted")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// MaxUploadBytes is the per-file ceiling of the storage plan.
const MaxUploadBytes = 50 * 1024 * 1024

// QuotaExceededError reports an upload over the size ceiling. The message
// carries both the limit and the offending size so the user sees concrete
// numbers.
type QuotaExceededError struct {
	SizeBytes  int64
	LimitBytes int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("file is %.1f MB, above the %d MB upload limit",
		float64(e.SizeBytes)/1024/1024, e.LimitBytes/1024/1024)
}

// IsNetworkError reports whether err looks like a transport failure rather
// than a storage-level rejection. Callers surface these as retryable; no
// automatic retry is performed.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
