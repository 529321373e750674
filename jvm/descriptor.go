package jvm

import "strings"

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

type Kind string

const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindEnum      Kind = "enum"
	KindArray     Kind = "array"
	KindPrimitive Kind = "primitive"
)

type NestKind string

const (
	NestTopLevel  NestKind = "top-level"
	NestMember    NestKind = "member"
	NestLocal     NestKind = "local"
	NestAnonymous NestKind = "anonymous"
)

// Modifiers mirrors the JVM access flag bits so metadata providers can pass
// them through unchanged.
type Modifiers uint16

const (
	ModPublic    Modifiers = 0x0001
	ModPrivate   Modifiers = 0x0002
	ModProtected Modifiers = 0x0004
	ModStatic    Modifiers = 0x0008
	ModFinal     Modifiers = 0x0010
	ModAbstract  Modifiers = 0x0400
)

func (m Modifiers) IsPublic() bool    { return m&ModPublic != 0 }
func (m Modifiers) IsPrivate() bool   { return m&ModPrivate != 0 }
func (m Modifiers) IsProtected() bool { return m&ModProtected != 0 }
func (m Modifiers) IsStatic() bool    { return m&ModStatic != 0 }
func (m Modifiers) IsFinal() bool     { return m&ModFinal != 0 }
func (m Modifiers) IsAbstract() bool  { return m&ModAbstract != 0 }

// Visibility collapses the raw bits into the three tiers the attribute-naming
// layer distinguishes. Package-private counts as private.
func (m Modifiers) Visibility() Visibility {
	switch {
	case m.IsPublic():
		return VisibilityPublic
	case m.IsProtected():
		return VisibilityProtected
	default:
		return VisibilityPrivate
	}
}

// TypeDescriptor is the cached metadata mirror of one JVM class. Exactly one
// instance exists per class name within a Registry; all descriptor-to-
// descriptor links point at shared instances, so the graph may be cyclic.
type TypeDescriptor struct {
	Name       string
	SimpleName string
	Kind       Kind
	Mods       Modifiers
	Nest       NestKind

	Component  *TypeDescriptor // arrays only
	Super      *TypeDescriptor // nil for interfaces, primitives, java.lang.Object
	Interfaces []*TypeDescriptor
	Enclosing  *TypeDescriptor

	Fields        map[string]*FieldDescriptor
	StaticFields  map[string]*FieldDescriptor
	Methods       map[string]*MethodGroup
	StaticMethods map[string]*MethodGroup
	Ctors         *MethodGroup

	EnumConstants []string

	// simple name -> qualified name of addressable member classes
	nested map[string]string

	released bool
}

func (t *TypeDescriptor) IsPrimitive() bool { return t.Kind == KindPrimitive }
func (t *TypeDescriptor) IsInterface() bool { return t.Kind == KindInterface }
func (t *TypeDescriptor) IsArray() bool     { return t.Kind == KindArray }

// IsReference reports whether values of this type live behind an object
// handle.
func (t *TypeDescriptor) IsReference() bool {
	return t.Kind != KindPrimitive
}

// AssignableTo reports whether a value of type t can be passed where target
// is expected, following JVM subtyping: identity, superclass chain,
// implemented interfaces, and reference-array covariance.
func (t *TypeDescriptor) AssignableTo(target *TypeDescriptor) bool {
	if t == nil || target == nil {
		return false
	}
	if t == target || t.Name == target.Name {
		return true
	}
	if t.Kind == KindPrimitive || target.Kind == KindPrimitive {
		return false
	}
	if target.Name == "java.lang.Object" {
		return true
	}
	if t.Kind == KindArray {
		if target.Kind == KindArray && t.Component != nil && t.Component.IsReference() {
			return t.Component.AssignableTo(target.Component)
		}
		return false
	}
	for _, iface := range t.Interfaces {
		if iface.AssignableTo(target) {
			return true
		}
	}
	if t.Super != nil {
		return t.Super.AssignableTo(target)
	}
	return false
}

// LookupMethods finds the overload group for an instance method, walking the
// superclass chain and merging overloads declared at different levels.
// Signatures overridden in a subclass are reported once.
func (t *TypeDescriptor) LookupMethods(name string) (*MethodGroup, error) {
	var merged []*MethodDescriptor
	seen := make(map[string]bool)
	for c := t; c != nil; c = c.Super {
		if group, ok := c.Methods[name]; ok {
			for _, m := range group.Methods {
				sig := m.paramSignature()
				if !seen[sig] {
					seen[sig] = true
					merged = append(merged, m)
				}
			}
		}
	}
	if len(merged) == 0 {
		return nil, &NotFoundError{Class: t.Name, Member: name, MemberKind: "method"}
	}
	return &MethodGroup{Name: name, Methods: merged}, nil
}

// LookupStaticMethods finds a static overload group. Static members are not
// inherited: only groups declared on this exact class are visible, because
// JVM static dispatch does not participate in subtype polymorphism.
func (t *TypeDescriptor) LookupStaticMethods(name string) (*MethodGroup, error) {
	if group, ok := t.StaticMethods[name]; ok {
		return group, nil
	}
	return nil, &NotFoundError{Class: t.Name, Member: name, MemberKind: "static method"}
}

// LookupField walks the superclass chain for an instance field.
func (t *TypeDescriptor) LookupField(name string) (*FieldDescriptor, error) {
	for c := t; c != nil; c = c.Super {
		if f, ok := c.Fields[name]; ok {
			return f, nil
		}
	}
	return nil, &NotFoundError{Class: t.Name, Member: name, MemberKind: "field"}
}

// LookupStaticField looks only on this exact class, like LookupStaticMethods.
func (t *TypeDescriptor) LookupStaticField(name string) (*FieldDescriptor, error) {
	if f, ok := t.StaticFields[name]; ok {
		return f, nil
	}
	return nil, &NotFoundError{Class: t.Name, Member: name, MemberKind: "static field"}
}

// NestedClassNames lists the qualified names of addressable member classes.
// Local and anonymous classes are excluded during registry construction.
func (t *TypeDescriptor) NestedClassNames() []string {
	names := make([]string, 0, len(t.nested))
	for _, qualified := range t.nested {
		names = append(names, qualified)
	}
	return names
}

// NestedClassName maps a member class's simple name to its qualified name.
func (t *TypeDescriptor) NestedClassName(simple string) (string, bool) {
	qualified, ok := t.nested[simple]
	return qualified, ok
}

// Release breaks the descriptor's links into the metadata graph so the cyclic
// structure can be collected and no native class handle outlives the runtime.
// The registry calls this during Close; a released descriptor must not be
// used afterward.
func (t *TypeDescriptor) Release() {
	t.released = true
	t.Super = nil
	t.Interfaces = nil
	t.Enclosing = nil
	t.Component = nil
	t.Fields = nil
	t.StaticFields = nil
	t.Methods = nil
	t.StaticMethods = nil
	t.Ctors = nil
	t.nested = nil
}

// Released reports whether Release has run.
func (t *TypeDescriptor) Released() bool { return t.released }

type FieldDescriptor struct {
	Name     string
	Mods     Modifiers
	Type     *TypeDescriptor
	Constant any // compile-time constant of a static final field, or nil
}

// MethodDescriptor is immutable after registry construction.
type MethodDescriptor struct {
	Name     string
	Mods     Modifiers
	Params   []*TypeDescriptor
	Returns  *TypeDescriptor // nil for void and for constructors
	Throws   []*TypeDescriptor
	Variadic bool
	ID       MethodID
}

// Signature renders the method the way diagnostics show it, e.g.
// "valueOf(java.lang.String)".
func (m *MethodDescriptor) Signature() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	sb.WriteString(m.paramSignature())
	return sb.String()
}

func (m *MethodDescriptor) paramSignature() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if m.Variadic && i == len(m.Params)-1 && p.Component != nil {
			sb.WriteString(p.Component.Name)
			sb.WriteString("...")
		} else {
			sb.WriteString(p.Name)
		}
	}
	sb.WriteString(")")
	return sb.String()
}

// MethodGroup is every overload sharing one name on one class (or, for
// constructors, on one constructor list).
type MethodGroup struct {
	Name    string
	Methods []*MethodDescriptor
}
