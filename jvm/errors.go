package jvm

import "fmt"

// NotFoundError reports a failed class or member lookup. It is fatal to the
// current call and always propagates to the caller.
type NotFoundError struct {
	Class      string
	Member     string // empty for class lookups
	MemberKind string // "method", "static method", "field", ...
}

func (e *NotFoundError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("class %s not found", e.Class)
	}
	return fmt.Sprintf("%s %s not found on %s", e.MemberKind, e.Member, e.Class)
}

// ForeignError wraps an exception raised inside the JVM during a native call.
// It is produced by checking Env.PendingException immediately after every
// call, so a pending throwable is never carried across a later operation.
type ForeignError struct {
	Class   string // throwable class name, if known
	Message string
	Handle  Handle // throwable handle, 0 if already released
}

func (e *ForeignError) Error() string {
	if e.Class == "" {
		return fmt.Sprintf("java exception: %s", e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}
