package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestQuotaExceededErrorMessage(t *testing.T) {
	err := &QuotaExceededError{SizeBytes: 60 * 1024 * 1024, LimitBytes: MaxUploadBytes}

	msg := err.Error()
	if !strings.Contains(msg, "60.0 MB") {
		t.Errorf("message should cite the file's actual size: %q", msg)
	}
	if !strings.Contains(msg, "50 MB") {
		t.Errorf("message should cite the ceiling: %q", msg)
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"net error", timeoutErr{}, true},
		{"wrapped net error", fmt.Errorf("fetch: %w", timeoutErr{}), true},
		{"deadline", context.DeadlineExceeded, true},
		{"not found", ErrNotFound, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetworkError(tt.err); got != tt.want {
				t.Errorf("IsNetworkError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestMaxUploadBytes(t *testing.T) {
	if MaxUploadBytes != 52428800 {
		t.Errorf("MaxUploadBytes = %d, want 50 MiB", int64(MaxUploadBytes))
	}
}
