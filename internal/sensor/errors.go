package sensor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// ErrResponseTooLarge is wrapped by the parse error for an oversized body.
var ErrResponseTooLarge = errors.New("sensor response too large")

// ErrorType represents the category of a sensor failure
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the sensor did not answer in time
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates the sensor hostname did not resolve
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-200 response
	ErrTypeHTTP
	// ErrTypeParse indicates the response was not a number
	ErrTypeParse
	// ErrTypeAddress indicates a missing or malformed address
	ErrTypeAddress
	// ErrTypeCanceled indicates the caller gave up
	ErrTypeCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeAddress:
		return "Address Error"
	case ErrTypeCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// SensorError describes a failed reading.
type SensorError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Address    string
	Err        error
	Retryable  bool
}

// Error implements the error interface
func (e *SensorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *SensorError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError maps a transport error onto a SensorError.
func ClassifyNetworkError(err error) *SensorError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &SensorError{Type: ErrTypeCanceled, Message: "Request canceled", Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &SensorError{Type: ErrTypeTimeout, Message: "Request timed out", Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &SensorError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &SensorError{Type: ErrTypeConnectionRefused, Message: "Sensor refused connection", Err: err, Retryable: true}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &SensorError{Type: ErrTypeNetwork, Message: "Host unreachable", Err: err, Retryable: true}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &SensorError{Type: ErrTypeNetwork, Message: "Network unreachable", Err: err, Retryable: true}
		}
	}

	return &SensorError{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err, Retryable: true}
}

// NewNetworkError creates a classified network error with message.
func NewNetworkError(message string, err error) *SensorError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &SensorError{Type: ErrTypeNetwork, Message: message, Retryable: true}
	}
	if classified.Type == ErrTypeNetwork {
		classified.Message = message + ": " + strings.ToLower(classified.Message)
	}
	return classified
}

// NewHTTPError creates an HTTP status error. 5xx responses are retryable.
func NewHTTPError(statusCode int, message string) *SensorError {
	return &SensorError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a non-numeric response error
func NewParseError(message string, err error) *SensorError {
	return &SensorError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewAddressError creates an address validation error
func NewAddressError(message string) *SensorError {
	return &SensorError{Type: ErrTypeAddress, Message: message}
}

func withAddress(e *SensorError, address string) *SensorError {
	e.Address = address
	return e
}

func errorType(err error) (ErrorType, bool) {
	var sErr *SensorError
	if errors.As(err, &sErr) {
		return sErr.Type, true
	}
	return 0, false
}

// IsNetworkError reports whether err is a transport failure of any kind.
func IsNetworkError(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsHTTPError reports whether err is a non-200 response.
func IsHTTPError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeHTTP
}

// IsParseError reports whether err is a non-numeric response.
func IsParseError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeParse
}

// IsAddressError reports whether err is a missing or invalid address.
func IsAddressError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeAddress
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var sErr *SensorError
	if errors.As(err, &sErr) {
		return sErr.Retryable
	}
	return false
}

// ShortMessage returns a one-line description for the status line.
func ShortMessage(err error) string {
	var sErr *SensorError
	if !errors.As(err, &sErr) {
		return err.Error()
	}

	switch sErr.Type {
	case ErrTypeTimeout:
		return "Sensor not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Sensor refused connection"
	case ErrTypeDNS:
		return "Cannot resolve sensor hostname"
	case ErrTypeHTTP:
		return fmt.Sprintf("Sensor error (HTTP %d)", sErr.StatusCode)
	case ErrTypeParse:
		return "Sensor sent a non-numeric reading"
	case ErrTypeCanceled:
		return "Request canceled"
	default:
		return sErr.Message
	}
}

// TroubleshootingHint returns multi-line advice for an error.
func TroubleshootingHint(err error) string {
	var sErr *SensorError
	if !errors.As(err, &sErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch sErr.Type {
	case ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeNetwork:
		return strings.Join([]string{
			"The sensor could not be reached.",
			"Troubleshooting:",
			"  • Check that the sensor is powered and on the same network",
			"  • Verify the address (try: co2viewer scan)",
			"  • Open " + ReadingURL(sErr.Address) + " in a browser",
		}, "\n")
	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the sensor hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of the hostname",
			"  • Run co2viewer scan to find sensors via mDNS",
		}, "\n")
	case ErrTypeHTTP:
		return fmt.Sprintf("The sensor answered with HTTP %d. Check that the address points at the sensor itself.", sErr.StatusCode)
	case ErrTypeParse:
		return "The address answered, but not with a number. Check that it points at a CO2 sensor."
	case ErrTypeAddress:
		return "Set the sensor address with: co2viewer address set <host[:port]>"
	default:
		return "Please check the error message for details."
	}
}
