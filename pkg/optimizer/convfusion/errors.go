package convfusion

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRequiredAttribute = errors.New("missing required attribute")
	ErrInvalidAttribute         = errors.New("invalid attribute")
)

// AttributeError reports a malformed activation node. It aborts the
// pass.
type AttributeError struct {
	Kind      error
	Node      string
	OpType    string
	Attribute string
	Msg       string
}

func (e *AttributeError) Error() string {
	s := fmt.Sprintf("%s %q of %s node %q", e.Kind.Error(), e.Attribute, e.OpType, e.Node)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *AttributeError) Unwrap() error { return e.Kind }
