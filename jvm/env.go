package jvm

// Handle is an opaque reference to a JVM object, owned by the runtime layer's
// reference table. 0 is the null reference. Handles are acquired and released
// through Env; a released handle must never be passed to Env again.
type Handle uint64

// MethodID identifies one method or constructor inside the runtime layer,
// opaque to the bridge core.
type MethodID uint64

type ValueKind uint8

const (
	VoidValue ValueKind = iota
	BoolValue
	ByteValue
	ShortValue
	IntValue
	LongValue
	CharValue
	FloatValue
	DoubleValue
	RefValue
)

// Value is one slot of a native argument buffer, the Go rendering of a JNI
// jvalue union: integral kinds use I, floating kinds use F, references use
// Ref.
type Value struct {
	Kind ValueKind
	I    int64
	F    float64
	Ref  Handle
}

func BoolOf(b bool) Value {
	v := Value{Kind: BoolValue}
	if b {
		v.I = 1
	}
	return v
}

func ByteOf(n int8) Value     { return Value{Kind: ByteValue, I: int64(n)} }
func ShortOf(n int16) Value   { return Value{Kind: ShortValue, I: int64(n)} }
func IntOf(n int32) Value     { return Value{Kind: IntValue, I: int64(n)} }
func LongOf(n int64) Value    { return Value{Kind: LongValue, I: n} }
func CharOf(r rune) Value     { return Value{Kind: CharValue, I: int64(r)} }
func FloatOf(f float32) Value { return Value{Kind: FloatValue, F: float64(f)} }
func DoubleOf(f float64) Value {
	return Value{Kind: DoubleValue, F: f}
}
func RefOf(h Handle) Value { return Value{Kind: RefValue, Ref: h} }

// Null is the null reference value.
func Null() Value { return Value{Kind: RefValue} }

func (v Value) IsNull() bool { return v.Kind == RefValue && v.Ref == 0 }

// Object pairs a live handle with the descriptor of its runtime class. This
// is the host-side representation of any JVM reference value.
type Object struct {
	H Handle
	T *TypeDescriptor
}

// Env is the per-thread view of the JVM supplied by the runtime collaborator.
// The bridge core consumes it for handle lifetime, invocation, and exception
// polling; it never implements any of these itself. Every method requires the
// calling goroutine's thread to be attached (see Threads).
type Env interface {
	// NewRef acquires an additional reference to h. The returned handle
	// must be released with DeleteRef exactly once.
	NewRef(h Handle) (Handle, error)
	DeleteRef(h Handle)

	// NewString interns a Go string as a java.lang.String, returning an
	// owned reference.
	NewString(s string) (Handle, error)
	GetString(h Handle) (string, error)

	// NewArray allocates an array of the given component type; the caller
	// owns the returned reference.
	NewArray(component *TypeDescriptor, length int) (Handle, error)
	SetArrayElement(array Handle, index int, v Value) error

	// BoxPrimitive wraps a primitive value in its standard wrapper object
	// (java.lang.Integer and friends), returning an owned reference.
	BoxPrimitive(v Value, wrapper *TypeDescriptor) (Handle, error)

	// EnumConstant resolves an enum constant of t by name.
	EnumConstant(t *TypeDescriptor, name string) (Handle, error)

	CallMethod(recv Handle, id MethodID, args []Value) (Value, error)
	CallStatic(t *TypeDescriptor, id MethodID, args []Value) (Value, error)
	NewObject(t *TypeDescriptor, id MethodID, args []Value) (Handle, error)

	// GetObjectClass names the runtime class of h.
	GetObjectClass(h Handle) (string, error)

	// PendingException returns the throwable raised by the most recent
	// call as a *ForeignError, clearing the pending state, or nil.
	PendingException() error
}

// Threads is the thread attachment collaborator. Attachment is an ambient
// precondition of every core operation and is not re-checked per call.
type Threads interface {
	AttachCurrentThread() error
	DetachCurrentThread() error
}
