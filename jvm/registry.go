package jvm

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("jbridge.registry")

// ClassInfo is the provider-neutral raw metadata for one class, before the
// registry has linked it into the descriptor graph. All type references are
// by source name ("java.lang.String", "int", "byte[]").
type ClassInfo struct {
	Name           string
	Kind           Kind
	Mods           Modifiers
	Nest           NestKind
	SuperName      string
	InterfaceNames []string
	EnclosingName  string
	EnumConstants  []string
	Fields         []FieldInfo
	Methods        []MethodInfo
	Ctors          []MethodInfo
	NestedNames    []string // qualified names; local/anonymous already excluded
}

type FieldInfo struct {
	Name     string
	TypeName string
	Mods     Modifiers
	Constant any // compile-time constant of a static final field, or nil
}

type MethodInfo struct {
	Name        string
	Mods        Modifiers
	ParamNames  []string
	ReturnName  string // "" or "void" for void
	ThrowsNames []string
	Variadic    bool
	ID          MethodID
}

// TypeProvider supplies raw class metadata to the registry: a live VM through
// its reflection interface, or classpath.Provider for offline class files. A
// missing class is reported as *NotFoundError.
type TypeProvider interface {
	ClassInfo(name string) (*ClassInfo, error)
}

var primitiveNames = []string{
	"boolean", "byte", "char", "short", "int", "long", "float", "double", "void",
}

// Registry builds and caches TypeDescriptors. The cache is shared across
// threads; first-time population runs under a single build lock so two
// threads resolving the same class never observe two partial builds.
type Registry struct {
	provider TypeProvider

	mu     sync.RWMutex // guards cache and closed
	cache  map[string]*TypeDescriptor
	closed bool

	buildMu sync.Mutex // serializes first-time population
}

func NewRegistry(provider TypeProvider) *Registry {
	r := &Registry{
		provider: provider,
		cache:    make(map[string]*TypeDescriptor),
	}
	for _, name := range primitiveNames {
		r.cache[name] = &TypeDescriptor{
			Name:       name,
			SimpleName: name,
			Kind:       KindPrimitive,
			Mods:       ModPublic | ModFinal,
			Nest:       NestTopLevel,
		}
	}
	return r
}

// Resolve returns the descriptor for name, building and caching it on first
// reference. Resolution is idempotent; a class the provider cannot locate
// fails with *NotFoundError.
func (r *Registry) Resolve(name string) (*TypeDescriptor, error) {
	r.mu.RLock()
	t, ok := r.cache[name]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, errors.New("registry is closed")
	}
	if ok {
		return t, nil
	}

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	// another thread may have built it while we waited
	r.mu.RLock()
	t, ok = r.cache[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	b := &builder{reg: r}
	t, err := b.resolve(name)
	if err != nil {
		b.rollback()
		return nil, err
	}
	log.Debugf("resolved %s (%d new descriptors)", name, len(b.added))
	return t, nil
}

// Close tears down every cached descriptor, breaking the cycles in the
// metadata graph. Call before detaching from the VM; the registry is
// unusable afterward.
func (r *Registry) Close() {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.cache {
		t.Release()
	}
	r.cache = make(map[string]*TypeDescriptor)
	r.closed = true
}

func (r *Registry) get(name string) (*TypeDescriptor, bool) {
	r.mu.RLock()
	t, ok := r.cache[name]
	r.mu.RUnlock()
	return t, ok
}

func (r *Registry) put(name string, t *TypeDescriptor) {
	r.mu.Lock()
	r.cache[name] = t
	r.mu.Unlock()
}

func (r *Registry) drop(name string) {
	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()
}

// builder is one population session under buildMu. Descriptors are inserted
// into the cache before their members resolve, so a class referring to
// itself through a field or parameter type terminates. If any referenced
// class is missing, the whole session rolls back.
type builder struct {
	reg   *Registry
	added []string
}

func (b *builder) rollback() {
	for _, name := range b.added {
		b.reg.drop(name)
	}
}

func (b *builder) resolve(name string) (*TypeDescriptor, error) {
	if t, ok := b.reg.get(name); ok {
		return t, nil
	}
	if strings.HasSuffix(name, "[]") {
		return b.resolveArray(name)
	}
	return b.resolveClass(name)
}

func (b *builder) resolveArray(name string) (*TypeDescriptor, error) {
	component, err := b.resolve(strings.TrimSuffix(name, "[]"))
	if err != nil {
		return nil, err
	}
	t := &TypeDescriptor{
		Name:       name,
		SimpleName: component.SimpleName + "[]",
		Kind:       KindArray,
		Mods:       ModPublic | ModFinal,
		Nest:       NestTopLevel,
		Component:  component,
	}
	b.reg.put(name, t)
	b.added = append(b.added, name)

	super, err := b.resolve("java.lang.Object")
	if err != nil {
		return nil, err
	}
	t.Super = super
	return t, nil
}

func (b *builder) resolveClass(name string) (*TypeDescriptor, error) {
	info, err := b.reg.provider.ClassInfo(name)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) && name == "java.lang.Object" {
			// every provider scope ends somewhere; the root type is
			// always resolvable so subtype queries terminate
			info = &ClassInfo{Name: name, Kind: KindClass, Mods: ModPublic, Nest: NestTopLevel}
		} else {
			return nil, err
		}
	}

	kind := info.Kind
	if kind == "" {
		kind = KindClass
	}
	nest := info.Nest
	if nest == "" {
		nest = NestTopLevel
	}
	t := &TypeDescriptor{
		Name:          info.Name,
		SimpleName:    simpleName(info.Name),
		Kind:          kind,
		Mods:          info.Mods,
		Nest:          nest,
		EnumConstants: info.EnumConstants,
		Fields:        make(map[string]*FieldDescriptor),
		StaticFields:  make(map[string]*FieldDescriptor),
		Methods:       make(map[string]*MethodGroup),
		StaticMethods: make(map[string]*MethodGroup),
		Ctors:         &MethodGroup{Name: "<init>"},
		nested:        make(map[string]string),
	}
	// register before resolving members: the class may reference itself
	b.reg.put(info.Name, t)
	b.added = append(b.added, info.Name)

	if info.SuperName != "" {
		if t.Super, err = b.resolve(info.SuperName); err != nil {
			return nil, err
		}
	}
	for _, ifaceName := range info.InterfaceNames {
		iface, err := b.resolve(ifaceName)
		if err != nil {
			return nil, err
		}
		t.Interfaces = append(t.Interfaces, iface)
	}
	if info.EnclosingName != "" {
		if t.Enclosing, err = b.resolve(info.EnclosingName); err != nil {
			return nil, err
		}
	}

	for _, f := range info.Fields {
		fieldType, err := b.resolve(f.TypeName)
		if err != nil {
			return nil, err
		}
		fd := &FieldDescriptor{Name: f.Name, Mods: f.Mods, Type: fieldType, Constant: f.Constant}
		if f.Mods.IsStatic() {
			t.StaticFields[f.Name] = fd
		} else {
			t.Fields[f.Name] = fd
		}
	}

	for _, m := range info.Methods {
		md, err := b.buildMethod(m)
		if err != nil {
			return nil, err
		}
		groups := t.Methods
		if m.Mods.IsStatic() {
			groups = t.StaticMethods
		}
		group, ok := groups[m.Name]
		if !ok {
			group = &MethodGroup{Name: m.Name}
			groups[m.Name] = group
		}
		group.Methods = append(group.Methods, md)
	}

	for _, c := range info.Ctors {
		md, err := b.buildMethod(c)
		if err != nil {
			return nil, err
		}
		t.Ctors.Methods = append(t.Ctors.Methods, md)
	}

	for _, qualified := range info.NestedNames {
		t.nested[simpleName(qualified)] = qualified
	}

	return t, nil
}

func (b *builder) buildMethod(m MethodInfo) (*MethodDescriptor, error) {
	md := &MethodDescriptor{
		Name:     m.Name,
		Mods:     m.Mods,
		Variadic: m.Variadic,
		ID:       m.ID,
	}
	for _, paramName := range m.ParamNames {
		p, err := b.resolve(paramName)
		if err != nil {
			return nil, err
		}
		md.Params = append(md.Params, p)
	}
	if m.ReturnName != "" && m.ReturnName != "void" {
		ret, err := b.resolve(m.ReturnName)
		if err != nil {
			return nil, err
		}
		md.Returns = ret
	}
	for _, throwsName := range m.ThrowsNames {
		exc, err := b.resolve(throwsName)
		if err != nil {
			return nil, err
		}
		md.Throws = append(md.Throws, exc)
	}
	if md.Variadic && len(md.Params) > 0 && !md.Params[len(md.Params)-1].IsArray() {
		return nil, fmt.Errorf("variadic method %s: last parameter %s is not an array",
			m.Name, md.Params[len(md.Params)-1].Name)
	}
	return md, nil
}

func simpleName(qualified string) string {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' || qualified[i] == '$' {
			return qualified[i+1:]
		}
	}
	return qualified
}
