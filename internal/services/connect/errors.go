package connect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Class is the kind of failure of a connect run. Larger values take
// precedence when several attempts fail differently.
type Class int

const (
	ClassNoCandidates Class = iota
	ClassTimeout
	ClassOther
	ClassUnknownHost
	ClassRefused
)

func (c Class) String() string {
	switch c {
	case ClassTimeout:
		return "timeout"
	case ClassOther:
		return "other"
	case ClassUnknownHost:
		return "unknown host"
	case ClassRefused:
		return "refused"
	default:
		return "no candidates"
	}
}

// ConnectError reports why no candidate could be reached.
type ConnectError struct {
	Class    Class
	Attempts int
	// Err is the last underlying dial error, if any.
	Err error
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("connect: %s after %d attempts", e.Class, e.Attempts)
	}
	return fmt.Sprintf("connect: %s after %d attempts: %v", e.Class, e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ClassOf returns the Class of err, or ClassOther when err is not a
// *ConnectError.
func ClassOf(err error) Class {
	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce.Class
	}
	return ClassOther
}

// Classify maps a single dial error to a Class.
func Classify(err error) Class {
	var dnsErr *net.DNSError
	switch {
	case err == nil:
		return ClassOther
	case errors.As(err, &dnsErr):
		return ClassUnknownHost
	case errors.Is(err, syscall.ECONNREFUSED):
		return ClassRefused
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	return ClassOther
}
