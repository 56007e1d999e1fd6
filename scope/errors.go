package scope

import "fmt"

// DigestError reports TTL exhaustion or a reentrant digest/apply. It has
// no cause to unwrap: both conditions are raised by the digest loop
// itself, not propagated from user code.
type DigestError struct {
	TTL       bool
	Reentrant bool
	Phase     Phase
}

func (e *DigestError) Error() string {
	if e.TTL {
		return "scope: Maximum $watch TTL exceeded"
	}
	return fmt.Sprintf("scope: %s already in progress", e.Phase)
}

// PanicError wraps a recovered panic from a watchFn, listenerFn, or
// queued task, so the sink sees a typed error rather than a bare
// recover() value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("scope: recovered panic: %v", e.Value)
}
