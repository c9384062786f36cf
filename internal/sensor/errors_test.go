package sensor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"
)

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      ErrorType
		wantRetryable bool
	}{
		{"nil", nil, 0, false},
		{"canceled", context.Canceled, ErrTypeCanceled, false},
		{"deadline", context.DeadlineExceeded, ErrTypeTimeout, true},
		{"dns", &net.DNSError{Name: "ud-co2s.local", Err: "no such host"}, ErrTypeDNS, false},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, ErrTypeConnectionRefused, true},
		{"host unreachable", &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH}, ErrTypeNetwork, true},
		{"wrapped refused", fmt.Errorf("dial: %w", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}), ErrTypeConnectionRefused, true},
		{"other", errors.New("boom"), ErrTypeNetwork, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("ClassifyNetworkError(nil) = %v, want nil", got)
				}
				return
			}
			if got.Type != tt.wantType || got.Retryable != tt.wantRetryable {
				t.Errorf("got type=%v retryable=%v, want type=%v retryable=%v", got.Type, got.Retryable, tt.wantType, tt.wantRetryable)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}
}

func TestNewHTTPError_Retryable(t *testing.T) {
	if NewHTTPError(404, "not found").Retryable {
		t.Error("4xx should not be retryable")
	}
	if !NewHTTPError(503, "unavailable").Retryable {
		t.Error("5xx should be retryable")
	}
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("poll: %w", NewParseError("bad", nil))
	if !IsParseError(wrapped) {
		t.Error("IsParseError should see through wrapping")
	}
	if IsNetworkError(wrapped) || IsHTTPError(wrapped) || IsAddressError(wrapped) {
		t.Error("parse error matched another predicate")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("unknown errors are not retryable")
	}
}

func TestShortMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", &SensorError{Type: ErrTypeTimeout}, "Sensor not responding (timeout)"},
		{"refused", &SensorError{Type: ErrTypeConnectionRefused}, "Sensor refused connection"},
		{"http", NewHTTPError(404, "x"), "Sensor error (HTTP 404)"},
		{"parse", NewParseError("x", nil), "Sensor sent a non-numeric reading"},
		{"address", NewAddressError("no sensor address configured"), "no sensor address configured"},
		{"plain", errors.New("plain failure"), "plain failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortMessage(tt.err); got != tt.want {
				t.Errorf("ShortMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTroubleshootingHint(t *testing.T) {
	err := withAddress(&SensorError{Type: ErrTypeConnectionRefused}, "10.0.0.9")
	hint := TroubleshootingHint(err)
	if !strings.Contains(hint, "http://10.0.0.9/co2") {
		t.Errorf("hint should point at the reading URL, got:\n%s", hint)
	}
	if !strings.Contains(TroubleshootingHint(NewAddressError("x")), "address set") {
		t.Error("address hint should mention the address command")
	}
}

func TestSensorError_Error(t *testing.T) {
	err := &SensorError{Type: ErrTypeHTTP, Message: "unexpected status code: 500"}
	if got := err.Error(); got != "HTTP Error: unexpected status code: 500" {
		t.Errorf("Error() = %q", got)
	}
	wrapped := &SensorError{Type: ErrTypeNetwork, Message: "GET failed", Err: errors.New("eof")}
	if !strings.Contains(wrapped.Error(), "caused by: eof") {
		t.Errorf("Error() = %q, want cause", wrapped.Error())
	}
}
