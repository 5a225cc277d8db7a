package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGraph = errors.New("invalid graph")
	ErrCycleFound   = errors.New("cycle detected")
	ErrNodeNotFound = errors.New("node not found")
)

// Error wraps graph handling failures with their kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func notFound(idx NodeIndex) error {
	return &Error{Kind: ErrNodeNotFound, Msg: fmt.Sprintf("node index %d", idx)}
}

func cycleError(names []string) error {
	msg := "cycle"
	if len(names) > 0 {
		msg = "cycle involving " + strings.Join(names, ", ")
	}
	return &Error{Kind: ErrCycleFound, Msg: msg}
}
