package classpath

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dhamidi/jbridge/classfile"
	"github.com/dhamidi/jbridge/jvm"
)

// Provider translates class files found on a Path into registry metadata.
// Method IDs are synthesized; MethodOf maps them back to the declaration for
// tooling that needs to display what an ID refers to.
type Provider struct {
	path   *Path
	nextID atomic.Uint64

	mu      sync.Mutex
	methods map[jvm.MethodID]MethodRef
}

// MethodRef identifies one method declaration by class, name, and raw
// descriptor.
type MethodRef struct {
	Class      string
	Name       string
	Descriptor string
}

func NewProvider(path *Path) *Provider {
	return &Provider{
		path:    path,
		methods: make(map[jvm.MethodID]MethodRef),
	}
}

// MethodOf resolves a synthesized method ID back to its declaration.
func (p *Provider) MethodOf(id jvm.MethodID) (MethodRef, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref, ok := p.methods[id]
	return ref, ok
}

// ClassInfo loads, parses, and translates one class. Called by the registry
// on first resolution of each name.
func (p *Provider) ClassInfo(name string) (*jvm.ClassInfo, error) {
	data, err := p.path.Find(name)
	if err != nil {
		return nil, err
	}
	cf, err := classfile.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return p.translate(name, cf)
}

func (p *Provider) translate(name string, cf *classfile.ClassFile) (*jvm.ClassInfo, error) {
	cp := cf.ConstantPool
	info := &jvm.ClassInfo{
		Name: name,
		Kind: classKind(cf),
		Mods: jvm.Modifiers(cf.AccessFlags),
		Nest: jvm.NestTopLevel,
	}

	// interfaces carry java/lang/Object as their classfile super, but they
	// have no superclass in the source model
	if !cf.IsInterface() {
		if super := cf.SuperClassName(); super != "" {
			info.SuperName = classfile.InternalToSourceName(super)
		}
	}
	for _, iface := range cf.InterfaceNames() {
		info.InterfaceNames = append(info.InterfaceNames, classfile.InternalToSourceName(iface))
	}

	p.translateNesting(name, cf, info)

	for _, f := range cf.Fields {
		if f.IsSynthetic() {
			continue
		}
		ft := f.ParsedDescriptor(cp)
		if ft == nil {
			return nil, fmt.Errorf("class %s: field %s has malformed descriptor %q",
				name, f.Name(cp), f.Descriptor(cp))
		}
		if f.IsEnum() && f.IsStatic() {
			info.EnumConstants = append(info.EnumConstants, f.Name(cp))
		}
		fi := jvm.FieldInfo{
			Name:     f.Name(cp),
			TypeName: ft.String(),
			Mods:     jvm.Modifiers(f.AccessFlags),
		}
		if f.IsStatic() && f.IsFinal() {
			fi.Constant = f.ConstantValue(cp)
		}
		info.Fields = append(info.Fields, fi)
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		if m.IsSynthetic() || m.IsBridge() || m.IsStaticInitializer(cp) {
			continue
		}
		mi, err := p.translateMethod(name, m, cp)
		if err != nil {
			return nil, err
		}
		if m.IsConstructor(cp) {
			info.Ctors = append(info.Ctors, mi)
		} else {
			info.Methods = append(info.Methods, mi)
		}
	}

	return info, nil
}

func (p *Provider) translateMethod(class string, m *classfile.MethodInfo, cp classfile.ConstantPool) (jvm.MethodInfo, error) {
	md := m.ParsedDescriptor(cp)
	if md == nil {
		return jvm.MethodInfo{}, fmt.Errorf("class %s: method %s has malformed descriptor %q",
			class, m.Name(cp), m.Descriptor(cp))
	}

	mi := jvm.MethodInfo{
		Name:     m.Name(cp),
		Mods:     jvm.Modifiers(m.AccessFlags),
		Variadic: m.IsVarargs(),
		ID:       jvm.MethodID(p.nextID.Add(1)),
	}
	for _, param := range md.Parameters {
		mi.ParamNames = append(mi.ParamNames, param.String())
	}
	if md.ReturnType != nil {
		mi.ReturnName = md.ReturnType.String()
	}
	for _, exc := range m.ExceptionNames(cp) {
		mi.ThrowsNames = append(mi.ThrowsNames, classfile.InternalToSourceName(exc))
	}

	p.mu.Lock()
	p.methods[mi.ID] = MethodRef{Class: class, Name: mi.Name, Descriptor: m.Descriptor(cp)}
	p.mu.Unlock()
	return mi, nil
}

// translateNesting fills Nest, EnclosingName, and NestedNames from the
// InnerClasses and EnclosingMethod attributes.
func (p *Provider) translateNesting(name string, cf *classfile.ClassFile, info *jvm.ClassInfo) {
	cp := cf.ConstantPool
	thisInternal := classfile.SourceToInternalName(name)

	attr := cf.GetAttribute("InnerClasses")
	if attr == nil {
		return
	}
	ic := attr.AsInnerClasses()
	if ic == nil {
		return
	}

	for i := range ic.Classes {
		e := &ic.Classes[i]
		inner := cp.GetClassName(e.InnerClassInfoIndex)
		if inner == thisInternal {
			switch {
			case e.IsAnonymous():
				info.Nest = jvm.NestAnonymous
			case e.IsLocal():
				info.Nest = jvm.NestLocal
			default:
				info.Nest = jvm.NestMember
				info.EnclosingName = classfile.InternalToSourceName(cp.GetClassName(e.OuterClassInfoIndex))
			}
			continue
		}
		// entries for our member classes; local and anonymous classes
		// are not addressable by name and stay out of the list
		if !e.IsAnonymous() && !e.IsLocal() &&
			cp.GetClassName(e.OuterClassInfoIndex) == thisInternal {
			info.NestedNames = append(info.NestedNames, classfile.InternalToSourceName(inner))
		}
	}

	if info.Nest == jvm.NestLocal || info.Nest == jvm.NestAnonymous {
		if em := cf.GetAttribute("EnclosingMethod"); em != nil {
			if parsed := em.AsEnclosingMethod(); parsed != nil {
				info.EnclosingName = classfile.InternalToSourceName(cp.GetClassName(parsed.ClassIndex))
			}
		}
	}
}

func classKind(cf *classfile.ClassFile) jvm.Kind {
	switch {
	case cf.IsEnum():
		return jvm.KindEnum
	case cf.AccessFlags.IsInterface():
		return jvm.KindInterface
	default:
		return jvm.KindClass
	}
}
