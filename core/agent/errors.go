package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/m3rciful/damagebot/core/netutil"
)

// RemoteError reports a failed backend call: a transport error, a timeout,
// a non-2xx status or a reply the bot cannot use.
type RemoteError struct {
	// Op is the backend endpoint, e.g. "get-agent".
	Op string
	// Status is the HTTP status code, zero when no response arrived.
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("agent %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("agent %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Code classifies the failure for log summaries.
func (e *RemoteError) Code() string {
	switch {
	case e.Timeout():
		return "REMOTE_TIMEOUT"
	case e.Status != 0 && (e.Status < 200 || e.Status > 299):
		return "REMOTE_STATUS"
	case errors.Is(e.Err, errRejected):
		return "REMOTE_REJECTED"
	case errors.Is(e.Err, errProtocol):
		return "REMOTE_PROTOCOL"
	default:
		return "REMOTE_NETWORK"
	}
}

// Timeout reports whether the call ran out of time.
func (e *RemoteError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Transient reports whether the failure looks like a network hiccup rather
// than a backend decision.
func (e *RemoteError) Transient() bool {
	return e.Status >= http.StatusInternalServerError || netutil.ShouldRetry(e.Err)
}

var (
	// errProtocol marks replies that arrived but do not carry a usable message.
	errProtocol = errors.New("unusable backend reply")
	// errRejected marks replies where the backend itself reported status "error".
	errRejected = errors.New("backend reported error")
)
