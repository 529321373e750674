package dispatch

import (
	"errors"
	"fmt"

	"github.com/dhamidi/jbridge/jvm"
	"github.com/dhamidi/jbridge/jvm/convert"
)

// Caller ties the registry, catalog, resolver, and marshaller into the
// call surface the host uses. The calling goroutine's thread must already
// be attached to the VM.
type Caller struct {
	Env      jvm.Env
	Registry *jvm.Registry
	Catalog  *convert.Catalog
}

func NewCaller(env jvm.Env, reg *jvm.Registry, cat *convert.Catalog) *Caller {
	return &Caller{Env: env, Registry: reg, Catalog: cat}
}

// CallMethod resolves and invokes an instance method on recv. Instance
// lookup sees inherited members through the superclass chain.
func (c *Caller) CallMethod(recv *jvm.Object, name string, args ...any) (any, error) {
	group, err := recv.T.LookupMethods(name)
	if err != nil {
		return nil, err
	}
	cand, err := ResolveOverload(c.Catalog, group, args)
	if err != nil {
		return nil, err
	}
	frame, err := Marshal(c.Env, cand, args)
	if err != nil {
		return nil, err
	}
	defer frame.Release()

	ret, err := c.Env.CallMethod(recv.H, cand.Method.ID, frame.Vals)
	// consume the pending throwable even on a failed call so it cannot
	// leak into the next operation
	if exc := c.Env.PendingException(); exc != nil {
		return nil, exc
	}
	if err != nil {
		return nil, err
	}
	return c.fromJava(cand.Method.Returns, ret)
}

// CallStatic resolves and invokes a static method. Static lookup never
// consults the superclass chain: the method must be declared on t itself.
func (c *Caller) CallStatic(t *jvm.TypeDescriptor, name string, args ...any) (any, error) {
	group, err := t.LookupStaticMethods(name)
	if err != nil {
		return nil, err
	}
	cand, err := ResolveOverload(c.Catalog, group, args)
	if err != nil {
		return nil, err
	}
	frame, err := Marshal(c.Env, cand, args)
	if err != nil {
		return nil, err
	}
	defer frame.Release()

	ret, err := c.Env.CallStatic(t, cand.Method.ID, frame.Vals)
	if exc := c.Env.PendingException(); exc != nil {
		return nil, exc
	}
	if err != nil {
		return nil, err
	}
	return c.fromJava(cand.Method.Returns, ret)
}

// New constructs an instance of t, resolving among its constructors.
func (c *Caller) New(t *jvm.TypeDescriptor, args ...any) (*jvm.Object, error) {
	if t.Ctors == nil || len(t.Ctors.Methods) == 0 {
		return nil, &jvm.NotFoundError{Class: t.Name, Member: "<init>", MemberKind: "constructor"}
	}
	cand, err := ResolveOverload(c.Catalog, t.Ctors, args)
	if err != nil {
		return nil, err
	}
	frame, err := Marshal(c.Env, cand, args)
	if err != nil {
		return nil, err
	}
	defer frame.Release()

	h, err := c.Env.NewObject(t, cand.Method.ID, frame.Vals)
	if exc := c.Env.PendingException(); exc != nil {
		err = exc
	}
	if err != nil {
		if h != 0 {
			c.Env.DeleteRef(h)
		}
		return nil, err
	}
	return &jvm.Object{H: h, T: t}, nil
}

// fromJava maps a returned native value back to the host: primitives become
// Go scalars, char becomes a one-rune string, strings are read out, and
// anything else stays an Object typed by its runtime class.
func (c *Caller) fromJava(declared *jvm.TypeDescriptor, v jvm.Value) (any, error) {
	switch v.Kind {
	case jvm.VoidValue:
		return nil, nil
	case jvm.BoolValue:
		return v.I != 0, nil
	case jvm.ByteValue, jvm.ShortValue, jvm.IntValue, jvm.LongValue:
		return v.I, nil
	case jvm.CharValue:
		return string(rune(v.I)), nil
	case jvm.FloatValue, jvm.DoubleValue:
		return v.F, nil
	case jvm.RefValue:
		if v.Ref == 0 {
			return nil, nil
		}
		if declared != nil && declared.Name == "java.lang.String" {
			s, err := c.Env.GetString(v.Ref)
			c.Env.DeleteRef(v.Ref)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
		t := declared
		if name, err := c.Env.GetObjectClass(v.Ref); err == nil {
			if dynamic, err := c.Registry.Resolve(name); err == nil {
				t = dynamic
			}
		}
		if t == nil {
			c.Env.DeleteRef(v.Ref)
			return nil, errors.New("cannot type returned reference")
		}
		return &jvm.Object{H: v.Ref, T: t}, nil
	}
	return nil, fmt.Errorf("unexpected value kind %d", v.Kind)
}
