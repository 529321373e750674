package classfile

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Builder assembles a minimal, valid class file in memory. It covers the
// subset of the format the parser consumes, which is enough for synthesizing
// fixtures and for tooling that needs to fabricate metadata-only classes.
type Builder struct {
	minorVersion uint16
	majorVersion uint16

	pool      []poolEntry
	nextIndex uint16
	utf8      map[string]uint16
	classes   map[string]uint16

	accessFlags AccessFlags
	thisClass   uint16
	superClass  uint16
	interfaces  []uint16
	fields      []memberEntry
	methods     []memberEntry
	attributes  []attributeEntry
}

type poolEntry struct {
	tag  ConstantTag
	data []byte
	wide bool
}

type memberEntry struct {
	flags           AccessFlags
	nameIndex       uint16
	descriptorIndex uint16
	attributes      []attributeEntry
}

type attributeEntry struct {
	nameIndex uint16
	info      []byte
}

// NewBuilder starts a class with the given name in source form
// ("java.util.ArrayList"). The superclass defaults to java.lang.Object.
func NewBuilder(className string) *Builder {
	b := &Builder{
		majorVersion: 52, // Java 8
		nextIndex:    1,
		utf8:         make(map[string]uint16),
		classes:      make(map[string]uint16),
		accessFlags:  AccPublic | AccSuper,
	}
	b.thisClass = b.Class(SourceToInternalName(className))
	b.superClass = b.Class("java/lang/Object")
	return b
}

func (b *Builder) SetAccessFlags(flags AccessFlags) *Builder {
	b.accessFlags = flags
	return b
}

func (b *Builder) SetSuperClass(className string) *Builder {
	b.superClass = b.Class(SourceToInternalName(className))
	return b
}

func (b *Builder) AddInterface(className string) *Builder {
	b.interfaces = append(b.interfaces, b.Class(SourceToInternalName(className)))
	return b
}

func (b *Builder) AddField(flags AccessFlags, name, descriptor string) *Builder {
	b.fields = append(b.fields, memberEntry{
		flags:           flags,
		nameIndex:       b.Utf8(name),
		descriptorIndex: b.Utf8(descriptor),
	})
	return b
}

// AddConstantField adds a field carrying a ConstantValue attribute. The
// valueIndex comes from one of the pool methods (Int, Long, Float, Double,
// String).
func (b *Builder) AddConstantField(flags AccessFlags, name, descriptor string, valueIndex uint16) *Builder {
	info := make([]byte, 2)
	binary.BigEndian.PutUint16(info, valueIndex)
	b.fields = append(b.fields, memberEntry{
		flags:           flags,
		nameIndex:       b.Utf8(name),
		descriptorIndex: b.Utf8(descriptor),
		attributes: []attributeEntry{
			{nameIndex: b.Utf8("ConstantValue"), info: info},
		},
	})
	return b
}

func (b *Builder) AddMethod(flags AccessFlags, name, descriptor string) *Builder {
	b.methods = append(b.methods, memberEntry{
		flags:           flags,
		nameIndex:       b.Utf8(name),
		descriptorIndex: b.Utf8(descriptor),
	})
	return b
}

// AddMethodThrows adds a method carrying an Exceptions attribute listing the
// given classes, in source form.
func (b *Builder) AddMethodThrows(flags AccessFlags, name, descriptor string, exceptions ...string) *Builder {
	info := make([]byte, 2+2*len(exceptions))
	binary.BigEndian.PutUint16(info[0:2], uint16(len(exceptions)))
	for i, exc := range exceptions {
		binary.BigEndian.PutUint16(info[2+i*2:4+i*2], b.Class(SourceToInternalName(exc)))
	}
	b.methods = append(b.methods, memberEntry{
		flags:           flags,
		nameIndex:       b.Utf8(name),
		descriptorIndex: b.Utf8(descriptor),
		attributes: []attributeEntry{
			{nameIndex: b.Utf8("Exceptions"), info: info},
		},
	})
	return b
}

func (b *Builder) SetSourceFile(name string) *Builder {
	info := make([]byte, 2)
	binary.BigEndian.PutUint16(info, b.Utf8(name))
	b.attributes = append(b.attributes, attributeEntry{
		nameIndex: b.Utf8("SourceFile"),
		info:      info,
	})
	return b
}

// AddInnerClass records one InnerClasses entry. Pass innerName "" for an
// anonymous class and outer "" for a local class.
func (b *Builder) AddInnerClass(inner, outer, innerName string, flags AccessFlags) *Builder {
	entry := make([]byte, 8)
	binary.BigEndian.PutUint16(entry[0:2], b.Class(SourceToInternalName(inner)))
	if outer != "" {
		binary.BigEndian.PutUint16(entry[2:4], b.Class(SourceToInternalName(outer)))
	}
	if innerName != "" {
		binary.BigEndian.PutUint16(entry[4:6], b.Utf8(innerName))
	}
	binary.BigEndian.PutUint16(entry[6:8], uint16(flags))

	// fold into an existing InnerClasses attribute if one was started
	nameIndex := b.Utf8("InnerClasses")
	for i := range b.attributes {
		if b.attributes[i].nameIndex == nameIndex {
			old := b.attributes[i].info
			count := binary.BigEndian.Uint16(old[0:2]) + 1
			info := make([]byte, 0, len(old)+8)
			info = append(info, old...)
			info = append(info, entry...)
			binary.BigEndian.PutUint16(info[0:2], count)
			b.attributes[i].info = info
			return b
		}
	}

	info := make([]byte, 2, 10)
	binary.BigEndian.PutUint16(info, 1)
	info = append(info, entry...)
	b.attributes = append(b.attributes, attributeEntry{nameIndex: nameIndex, info: info})
	return b
}

func (b *Builder) SetEnclosingMethod(className string, methodIndex uint16) *Builder {
	info := make([]byte, 4)
	binary.BigEndian.PutUint16(info[0:2], b.Class(SourceToInternalName(className)))
	binary.BigEndian.PutUint16(info[2:4], methodIndex)
	b.attributes = append(b.attributes, attributeEntry{
		nameIndex: b.Utf8("EnclosingMethod"),
		info:      info,
	})
	return b
}

// Utf8 interns a string into the constant pool and returns its index.
func (b *Builder) Utf8(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	encoded := encodeModifiedUtf8(s)
	data := make([]byte, 2+len(encoded))
	binary.BigEndian.PutUint16(data[0:2], uint16(len(encoded)))
	copy(data[2:], encoded)
	idx := b.append(poolEntry{tag: ConstantUtf8, data: data})
	b.utf8[s] = idx
	return idx
}

// Class interns a CONSTANT_Class entry for an internal name ("java/util/Map").
func (b *Builder) Class(internalName string) uint16 {
	if idx, ok := b.classes[internalName]; ok {
		return idx
	}
	nameIndex := b.Utf8(internalName)
	data := make([]byte, 2)
	binary.BigEndian.PutUint16(data, nameIndex)
	idx := b.append(poolEntry{tag: ConstantClass, data: data})
	b.classes[internalName] = idx
	return idx
}

func (b *Builder) Int(v int32) uint16 {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, uint32(v))
	return b.append(poolEntry{tag: ConstantInteger, data: data})
}

// Long occupies two pool slots, as the format demands.
func (b *Builder) Long(v int64) uint16 {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, uint64(v))
	return b.append(poolEntry{tag: ConstantLong, data: data, wide: true})
}

func (b *Builder) Float(v float32) uint16 {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, math.Float32bits(v))
	return b.append(poolEntry{tag: ConstantFloat, data: data})
}

// Double occupies two pool slots, like Long.
func (b *Builder) Double(v float64) uint16 {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, math.Float64bits(v))
	return b.append(poolEntry{tag: ConstantDouble, data: data, wide: true})
}

// StringConst interns a CONSTANT_String entry.
func (b *Builder) StringConst(s string) uint16 {
	utf8Index := b.Utf8(s)
	data := make([]byte, 2)
	binary.BigEndian.PutUint16(data, utf8Index)
	return b.append(poolEntry{tag: ConstantString, data: data})
}

func (b *Builder) append(e poolEntry) uint16 {
	idx := b.nextIndex
	b.pool = append(b.pool, e)
	b.nextIndex++
	if e.wide {
		// longs and doubles occupy two pool slots
		b.nextIndex++
	}
	return idx
}

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.BigEndian, v) }

	w(uint32(Magic))
	w(b.minorVersion)
	w(b.majorVersion)

	w(b.nextIndex)
	for _, e := range b.pool {
		w(uint8(e.tag))
		buf.Write(e.data)
	}

	w(uint16(b.accessFlags))
	w(b.thisClass)
	w(b.superClass)

	w(uint16(len(b.interfaces)))
	for _, idx := range b.interfaces {
		w(idx)
	}

	writeMembers := func(members []memberEntry) {
		w(uint16(len(members)))
		for _, m := range members {
			w(uint16(m.flags))
			w(m.nameIndex)
			w(m.descriptorIndex)
			w(uint16(len(m.attributes)))
			for _, a := range m.attributes {
				w(a.nameIndex)
				w(uint32(len(a.info)))
				buf.Write(a.info)
			}
		}
	}
	writeMembers(b.fields)
	writeMembers(b.methods)

	w(uint16(len(b.attributes)))
	for _, a := range b.attributes {
		w(a.nameIndex)
		w(uint32(len(a.info)))
		buf.Write(a.info)
	}

	return buf.Bytes()
}

func encodeModifiedUtf8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			out = append(out, 0xE0|byte(r>>12), 0x80|byte((r>>6)&0x3F), 0x80|byte(r&0x3F))
		default:
			// supplementary characters become a surrogate pair, each
			// half in 3-byte form
			r -= 0x10000
			high := 0xD800 + (r >> 10)
			low := 0xDC00 + (r & 0x3FF)
			out = append(out, 0xED, 0x80|byte((high>>6)&0x3F), 0x80|byte(high&0x3F))
			out = append(out, 0xED, 0x80|byte((low>>6)&0x3F), 0x80|byte(low&0x3F))
		}
	}
	return out
}
