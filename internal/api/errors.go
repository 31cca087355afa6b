package api

import (
	"errors"
	"fmt"
)

// Kind classifies a remote-call failure. Callers that only care about
// success collapse it to err != nil; callers that branch (session teardown
// on auth failure, cache clearing) inspect the kind.
type Kind string

const (
	KindTransport    Kind = "transport"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindInvalid      Kind = "invalid"
	KindServer       Kind = "server"
)

// Error is the only error type that crosses the transport boundary.
type Error struct {
	Kind    Kind
	Status  int // 0 when the request never produced a response
	Service string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: %s (status %d)", e.Service, e.Op, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Service, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Service, e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind, or "" when err is nil or foreign.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsAuthFailure reports whether err is a 401/403 class failure.
func IsAuthFailure(err error) bool {
	k := KindOf(err)
	return k == KindUnauthorized || k == KindForbidden
}

func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 400 || status == 422:
		return KindInvalid
	default:
		return KindServer
	}
}
