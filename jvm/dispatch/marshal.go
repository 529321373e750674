package dispatch

import (
	"errors"

	"github.com/dhamidi/jbridge/jvm"
)

// Frame is one prepared native argument buffer plus every reference the
// marshalling phase acquired for it. Conversion is two-phase: each
// conversion populates only the slot it owns, and Release unwinds every
// acquired reference exactly once no matter where the call failed.
type Frame struct {
	env   jvm.Env
	Vals  []jvm.Value
	owned []jvm.Handle
}

func (f *Frame) track(v jvm.Value, owned bool) {
	if owned && v.Kind == jvm.RefValue && v.Ref != 0 {
		f.owned = append(f.owned, v.Ref)
	}
}

// Release deletes every reference acquired while marshalling. Safe to call
// once the native call has returned (the callee holds its own references by
// then) and on every failure path; calling it twice is a no-op.
func (f *Frame) Release() {
	for _, h := range f.owned {
		f.env.DeleteRef(h)
	}
	f.owned = nil
}

// Marshal converts the resolver's chosen candidate into a native argument
// buffer sized to the declared parameter count. Fixed arguments convert
// left to right; a variadic tail either reuses a directly supplied array or
// is allocated fresh, one element at a time. Any failure releases every
// reference acquired so far before returning.
func Marshal(env jvm.Env, cand *Candidate, args []any) (*Frame, error) {
	if cand.Kind == NoMatch || cand.Kind == AmbiguousVararg {
		return nil, errors.New("candidate is not marshallable")
	}
	m := cand.Method
	f := &Frame{env: env, Vals: make([]jvm.Value, len(m.Params))}

	fixedCount := len(m.Params)
	variadicTail := m.Variadic && cand.Kind == Match
	if variadicTail {
		fixedCount--
	}

	for i := 0; i < fixedCount; i++ {
		v, owned, err := cand.Convs[i](env)
		if err != nil {
			f.Release()
			return nil, err
		}
		f.Vals[i] = v
		f.track(v, owned)
	}

	if variadicTail {
		// the call signature requires a non-absent argument, so even an
		// empty tail becomes a real array
		tailParam := m.Params[fixedCount]
		tailLen := len(cand.Convs) - fixedCount
		array, err := env.NewArray(tailParam.Component, tailLen)
		if err != nil {
			f.Release()
			return nil, err
		}
		f.Vals[fixedCount] = jvm.RefOf(array)
		f.track(f.Vals[fixedCount], true)

		for i := 0; i < tailLen; i++ {
			v, owned, err := cand.Convs[fixedCount+i](env)
			if err != nil {
				f.Release()
				return nil, err
			}
			f.track(v, owned)
			if err := env.SetArrayElement(array, i, v); err != nil {
				f.Release()
				return nil, err
			}
		}
	}

	return f, nil
}
