// ABOUTME: Tagged failure variant for source-hosting calls
// ABOUTME: Converts transport errors and HTTP statuses into NotFound/Transient/Other kinds

package github

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// Kind classifies a failed call.
type Kind int

const (
	KindOther     Kind = iota // server answered with an unexpected status or payload
	KindNotFound              // server answered 404
	KindTransient             // request never reached the server
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	default:
		return "other"
	}
}

// Error is the only error type returned by Client.
type Error struct {
	Kind   Kind
	Op     string // e.g. "read gist"
	Status int    // HTTP status, 0 when no response was received
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("github %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("github %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindOther when err is not a *Error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindOther
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsTransient reports whether err is a network failure before any response.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// statusError builds the failure for a non-2xx response.
func statusError(op string, status int, body string) *Error {
	kind := KindOther
	if status == http.StatusNotFound {
		kind = KindNotFound
	}
	msg := http.StatusText(status)
	if body != "" {
		msg = body
	}
	return &Error{Kind: kind, Op: op, Status: status, Err: errors.New(msg)}
}

// transportError classifies an error returned by http.Client.Do. Only
// failures that happen before the request is written are transient: DNS
// lookup, dialing and the TLS handshake. Timeouts and resets after the
// request went out are KindOther since the server may have acted on it.
func transportError(op string, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindOther, Op: op, Err: err}
	}
	if neverSent(err) {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	return &Error{Kind: KindOther, Op: op, Err: err}
}

func neverSent(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var alertErr tls.AlertError
	return errors.As(err, &alertErr)
}
