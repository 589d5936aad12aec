package tracking

import "fmt"

// DenyKind classifies why an event was refused. Callers react differently per
// kind: malformed input and unauthorized access carry different audit severity,
// and only some denials are worth retrying.
type DenyKind string

const (
	DenyMalformedInput DenyKind = "malformed-input"
	DenyNotFound       DenyKind = "not-found"
	DenyUnauthorized   DenyKind = "unauthorized"
	DenyInvalidState   DenyKind = "invalid-state"
)

// Denial is a structured refusal returned by the authorization guard.
// Security=true means the refusal must be reported to the audit collaborator
// as a security event.
type Denial struct {
	Kind      DenyKind
	Message   string
	Retryable bool
	Security  bool
}

// Error implements the error interface so denials flow through normal error returns.
func (d *Denial) Error() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// NewDenial builds a denial for the given kind with the flags that kind
// implies (unauthorized is a security event, invalid-state is retryable).
func NewDenial(kind DenyKind, msg string) *Denial {
	switch kind {
	case DenyUnauthorized:
		return unauthorized(msg)
	case DenyNotFound:
		return notFound(msg)
	case DenyInvalidState:
		return invalidState(msg)
	default:
		return malformed(msg)
	}
}

func malformed(msg string) *Denial {
	return &Denial{Kind: DenyMalformedInput, Message: msg}
}

func notFound(msg string) *Denial {
	return &Denial{Kind: DenyNotFound, Message: msg}
}

func unauthorized(msg string) *Denial {
	return &Denial{Kind: DenyUnauthorized, Message: msg, Security: true}
}

func invalidState(msg string) *Denial {
	return &Denial{Kind: DenyInvalidState, Message: msg, Retryable: true}
}
