package convert

import (
	"sync"

	"github.com/dhamidi/jbridge/jvm"
)

// Conversion materializes one host value as a native argument slot. The
// returned bool reports whether the caller owns v.Ref and must release it
// (through jvm.Env.DeleteRef) once the call frame is torn down.
type Conversion func(env jvm.Env) (v jvm.Value, owned bool, err error)

// Probe inspects a host value against a concrete target type and reports how
// well it could be converted. A probe only runs for inputs its rule's
// filters claimed to handle.
type Probe func(value any, target *jvm.TypeDescriptor) (Quality, Conversion)

// SourceFilter pre-screens host values; nil accepts any value.
type SourceFilter func(value any) bool

// TargetFilter pre-screens target types; nil accepts any type.
type TargetFilter func(target *jvm.TypeDescriptor) bool

// TargetNamed matches reference targets by exact class name.
func TargetNamed(names ...string) TargetFilter {
	return func(target *jvm.TypeDescriptor) bool {
		for _, n := range names {
			if target.Name == n {
				return true
			}
		}
		return false
	}
}

type rule struct {
	source SourceFilter
	target TargetFilter
	probe  Probe
}

// Catalog is the process-wide, append-only conversion rule list. Built-in
// rules are installed first; rules registered later are consulted after
// them in registration order, so a custom rule only displaces a built-in by
// reporting a strictly higher quality.
type Catalog struct {
	mu    sync.RWMutex
	rules []rule
}

func NewCatalog() *Catalog {
	c := &Catalog{}
	c.installBuiltins()
	return c
}

// Register appends a custom rule. Either filter may be nil to accept
// anything. Registration is safe at any time; it affects only resolutions
// that run after it, since no conversion decision is ever cached.
func (c *Catalog) Register(source SourceFilter, target TargetFilter, probe Probe) {
	c.mu.Lock()
	c.rules = append(c.rules, rule{source: source, target: target, probe: probe})
	c.mu.Unlock()
}

// Best reports the highest-quality conversion from value to target. It is
// total: every (value, target) pair yields a Quality, with Fail meaning no
// rule applies. Primitive targets use a fixed dispatch; reference targets
// scan the rule list.
func (c *Catalog) Best(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	if target.IsPrimitive() {
		return primitiveConversion(value, target)
	}

	c.mu.RLock()
	rules := c.rules
	c.mu.RUnlock()

	best := Fail
	var bestConv Conversion
	for _, r := range rules {
		if r.source != nil && !r.source(value) {
			continue
		}
		if r.target != nil && !r.target(target) {
			continue
		}
		q, conv := r.probe(value, target)
		if q > best {
			best, bestConv = q, conv
			if best == Perfect {
				// nothing can rank higher; skipping the rest does
				// not change the result
				break
			}
		}
	}
	return best, bestConv
}
