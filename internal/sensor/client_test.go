package sensor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newSensorServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, strings.TrimPrefix(server.URL, "http://")
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestReadingURL(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"192.168.1.31", "http://192.168.1.31/co2"},
		{"192.168.1.31:8080", "http://192.168.1.31:8080/co2"},
		{" ud-co2s.local ", "http://ud-co2s.local/co2"},
		{"http://10.0.0.2/", "http://10.0.0.2/co2"},
		{"https://relay.example.com", "https://relay.example.com/co2"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			if got := ReadingURL(tt.address); got != tt.want {
				t.Errorf("ReadingURL(%q) = %q, want %q", tt.address, got, tt.want)
			}
		})
	}
}

func TestFetch_Success(t *testing.T) {
	_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/co2" {
			t.Errorf("path = %s, want /co2", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		_, _ = w.Write([]byte("812\n"))
	})

	text, err := NewClient().Fetch(context.Background(), addr)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if text != "812" {
		t.Errorf("Fetch() = %q, want 812", text)
	}
}

func TestFetch_ReturnsNonNumericText(t *testing.T) {
	_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not-a-number"))
	})

	text, err := NewClient().Fetch(context.Background(), addr)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if text != "not-a-number" {
		t.Errorf("Fetch() = %q, want raw text", text)
	}
}

func TestFetch_OversizedBody(t *testing.T) {
	_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("1", maxBodySize+1)))
	})

	text, err := NewClient().Fetch(context.Background(), addr)
	if !IsParseError(err) {
		t.Fatalf("Fetch() error = %v, want parse error", err)
	}
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("Fetch() error = %v, want ErrResponseTooLarge", err)
	}
	if text != "" {
		t.Errorf("Fetch() = %q, want no text", text)
	}
}

func TestFetch_BodyAtLimit(t *testing.T) {
	body := strings.Repeat(" ", maxBodySize-3) + "812"
	_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	text, err := NewClient().Fetch(context.Background(), addr)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if text != "812" {
		t.Errorf("Fetch() = %q, want 812", text)
	}
}

func TestFetch_EmptyAddress(t *testing.T) {
	_, err := NewClient().Fetch(context.Background(), "  ")
	if !IsAddressError(err) {
		t.Errorf("Fetch(\"\") error = %v, want address error", err)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	var calls atomic.Int32
	_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})

	client := NewClient()
	client.SetRetry(3, time.Millisecond)
	client.sleep = noSleep

	_, err := client.Fetch(context.Background(), addr)
	if !IsHTTPError(err) {
		t.Fatalf("Fetch() error = %v, want HTTP error", err)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx should not be retried, got %d calls", calls.Load())
	}

	var sErr *SensorError
	if !errors.As(err, &sErr) || sErr.StatusCode != http.StatusNotFound || sErr.Address != addr {
		t.Errorf("SensorError = %+v, want 404 for %s", sErr, addr)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("640"))
	})

	var delays []time.Duration
	client := NewClient()
	client.SetRetry(3, 100*time.Millisecond)
	client.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	text, err := client.Fetch(context.Background(), addr)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if text != "640" {
		t.Errorf("Fetch() = %q, want 640", text)
	}
	if len(delays) != 2 || delays[0] != 100*time.Millisecond || delays[1] != 200*time.Millisecond {
		t.Errorf("backoff delays = %v, want [100ms 200ms]", delays)
	}
}

func TestFetch_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := NewClient().Fetch(context.Background(), addr)
	if err == nil {
		t.Fatal("Fetch() should fail")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	server, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := NewClient().Fetch(context.Background(), addr)
	if !IsNetworkError(err) {
		t.Errorf("Fetch() error = %v, want network error", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	client := NewClient()
	client.SetTimeout(50 * time.Millisecond)

	_, err := client.Fetch(context.Background(), addr)
	var sErr *SensorError
	if !errors.As(err, &sErr) || sErr.Type != ErrTypeTimeout {
		t.Errorf("Fetch() error = %v, want timeout", err)
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient()
	client.SetRetry(5, time.Hour)
	client.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := client.Fetch(ctx, addr)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
}

func TestReadPPM(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      float64
		wantParse bool
	}{
		{"integer", "1200", 1200, false},
		{"decimal", "415.5", 415.5, false},
		{"garbage", "not-a-number", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, addr := newSensorServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := NewClient().ReadPPM(context.Background(), addr)
			if tt.wantParse {
				if !IsParseError(err) {
					t.Errorf("ReadPPM() error = %v, want parse error", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ReadPPM() = (%v, %v), want %v", got, err, tt.want)
			}
		})
	}
}
