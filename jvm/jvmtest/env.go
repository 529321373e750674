// Package jvmtest provides an in-memory stand-in for the JVM runtime
// collaborator so the registry, catalog, resolver, and marshaller can be
// exercised without a live VM.
package jvmtest

import (
	"fmt"
	"sync"

	"github.com/dhamidi/jbridge/jvm"
)

type object struct {
	class    string
	str      string
	array    []jvm.Value
	boxed    jvm.Value
	enumName string
}

// Env implements jvm.Env and jvm.Threads over an in-memory handle table.
// Every handle is one reference; DeleteRef invalidates exactly that handle.
// Tests use LiveHandles and Faults to assert that marshalling never leaks
// and never releases twice.
type Env struct {
	mu      sync.Mutex
	next    jvm.Handle
	handles map[jvm.Handle]*object
	pending error
	faults  []string

	// OnCall, OnStatic, and OnNew script invocation results. When nil,
	// calls return void and constructors return a plain object.
	OnCall   func(recv jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error)
	OnStatic func(t *jvm.TypeDescriptor, id jvm.MethodID, args []jvm.Value) (jvm.Value, error)
	OnNew    func(t *jvm.TypeDescriptor, id jvm.MethodID, args []jvm.Value) (jvm.Handle, error)
}

func NewEnv() *Env {
	return &Env{handles: make(map[jvm.Handle]*object)}
}

func (e *Env) alloc(o *object) jvm.Handle {
	e.next++
	e.handles[e.next] = o
	return e.next
}

// NewHandle registers a plain object of the given class and returns its
// handle. Tests use it to fabricate receivers and arguments.
func (e *Env) NewHandle(class string) jvm.Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alloc(&object{class: class})
}

// LiveHandles counts handles that have been acquired and not yet released.
func (e *Env) LiveHandles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handles)
}

// Faults lists protocol violations seen so far: releases of unknown or
// already-released handles, or dereferences of dead handles.
func (e *Env) Faults() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.faults...)
}

func (e *Env) fault(format string, args ...any) {
	e.faults = append(e.faults, fmt.Sprintf(format, args...))
}

func (e *Env) lookup(h jvm.Handle, op string) *object {
	o, ok := e.handles[h]
	if !ok {
		e.fault("%s: dead handle %d", op, h)
	}
	return o
}

// Throw arranges for PendingException to report err after the current call.
func (e *Env) Throw(class, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = &jvm.ForeignError{Class: class, Message: message}
}

func (e *Env) AttachCurrentThread() error { return nil }
func (e *Env) DetachCurrentThread() error { return nil }

func (e *Env) NewRef(h jvm.Handle) (jvm.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o := e.lookup(h, "NewRef")
	if o == nil {
		return 0, fmt.Errorf("NewRef: dead handle %d", h)
	}
	return e.alloc(o), nil
}

func (e *Env) DeleteRef(h jvm.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.handles[h]; !ok {
		e.fault("DeleteRef: handle %d released twice or never acquired", h)
		return
	}
	delete(e.handles, h)
}

func (e *Env) NewString(s string) (jvm.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alloc(&object{class: "java.lang.String", str: s}), nil
}

func (e *Env) GetString(h jvm.Handle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o := e.lookup(h, "GetString")
	if o == nil {
		return "", fmt.Errorf("GetString: dead handle %d", h)
	}
	if o.class != "java.lang.String" {
		return "", fmt.Errorf("GetString: handle %d is a %s", h, o.class)
	}
	return o.str, nil
}

func (e *Env) NewArray(component *jvm.TypeDescriptor, length int) (jvm.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alloc(&object{
		class: component.Name + "[]",
		array: make([]jvm.Value, length),
	}), nil
}

func (e *Env) SetArrayElement(array jvm.Handle, index int, v jvm.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	o := e.lookup(array, "SetArrayElement")
	if o == nil {
		return fmt.Errorf("SetArrayElement: dead handle %d", array)
	}
	if index < 0 || index >= len(o.array) {
		return fmt.Errorf("SetArrayElement: index %d out of range %d", index, len(o.array))
	}
	o.array[index] = v
	return nil
}

// ArrayLen reports the length of a fake array, for test assertions.
func (e *Env) ArrayLen(h jvm.Handle) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o, ok := e.handles[h]; ok {
		return len(o.array)
	}
	return -1
}

// ArrayElement reads back a fake array slot, for test assertions.
func (e *Env) ArrayElement(h jvm.Handle, index int) jvm.Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o, ok := e.handles[h]; ok && index >= 0 && index < len(o.array) {
		return o.array[index]
	}
	return jvm.Value{}
}

func (e *Env) BoxPrimitive(v jvm.Value, wrapper *jvm.TypeDescriptor) (jvm.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alloc(&object{class: wrapper.Name, boxed: v}), nil
}

// Boxed reads back the primitive inside a fake wrapper object.
func (e *Env) Boxed(h jvm.Handle) jvm.Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o, ok := e.handles[h]; ok {
		return o.boxed
	}
	return jvm.Value{}
}

func (e *Env) EnumConstant(t *jvm.TypeDescriptor, name string) (jvm.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alloc(&object{class: t.Name, enumName: name}), nil
}

func (e *Env) CallMethod(recv jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
	e.mu.Lock()
	if o := e.lookup(recv, "CallMethod"); o == nil {
		e.mu.Unlock()
		return jvm.Value{}, fmt.Errorf("CallMethod: dead receiver %d", recv)
	}
	e.mu.Unlock()
	if e.OnCall != nil {
		return e.OnCall(recv, id, args)
	}
	return jvm.Value{Kind: jvm.VoidValue}, nil
}

func (e *Env) CallStatic(t *jvm.TypeDescriptor, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
	if e.OnStatic != nil {
		return e.OnStatic(t, id, args)
	}
	return jvm.Value{Kind: jvm.VoidValue}, nil
}

func (e *Env) NewObject(t *jvm.TypeDescriptor, id jvm.MethodID, args []jvm.Value) (jvm.Handle, error) {
	if e.OnNew != nil {
		return e.OnNew(t, id, args)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alloc(&object{class: t.Name}), nil
}

func (e *Env) GetObjectClass(h jvm.Handle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o := e.lookup(h, "GetObjectClass")
	if o == nil {
		return "", fmt.Errorf("GetObjectClass: dead handle %d", h)
	}
	return o.class, nil
}

func (e *Env) PendingException() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.pending
	e.pending = nil
	return err
}
