package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	retry := []error{
		&url.Error{Op: "Post", URL: "http://x", Err: timeoutErr{}},
		&net.OpError{Op: "dial", Err: errors.New("no route")},
		fmt.Errorf("read: %w", syscall.ECONNRESET),
		context.DeadlineExceeded,
	}
	for _, err := range retry {
		if !ShouldRetry(err) {
			t.Fatalf("ShouldRetry(%v) = false", err)
		}
	}
	for _, err := range []error{nil, errors.New("bad request"), &net.OpError{Op: "read", Err: errors.New("closed")}} {
		if ShouldRetry(err) {
			t.Fatalf("ShouldRetry(%v) = true", err)
		}
	}
}

func TestNewTransportDefaults(t *testing.T) {
	tr := NewTransport(TransportOptions{ResponseHeaderTimeout: 15 * time.Second})
	if tr.TLSHandshakeTimeout != 5*time.Second || tr.MaxIdleConnsPerHost != 10 {
		t.Fatalf("defaults not applied: %+v", tr)
	}
	if tr.ResponseHeaderTimeout != 15*time.Second {
		t.Fatalf("ResponseHeaderTimeout = %v", tr.ResponseHeaderTimeout)
	}
}
