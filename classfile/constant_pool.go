package classfile

// ConstantPoolEntry is one slot of the constant pool. Entry kinds the bridge
// never dereferences (method handles, dynamic call sites) are still parsed so
// pool indices stay aligned, but expose no accessors.
type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

// constantRefInfo covers Fieldref, Methodref, and InterfaceMethodref, which
// share one layout.
type constantRefInfo struct {
	tag              ConstantTag
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *constantRefInfo) Tag() ConstantTag { return c.tag }

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

type opaqueEntry struct {
	tag ConstantTag
}

func (c *opaqueEntry) Tag() ConstantTag { return c.tag }

type ConstantPool []ConstantPoolEntry

func (cp ConstantPool) GetUtf8(index uint16) string {
	if index == 0 || int(index) > len(cp) {
		return ""
	}
	if entry, ok := cp[index-1].(*ConstantUtf8Info); ok {
		return entry.Value
	}
	return ""
}

func (cp ConstantPool) GetClassName(index uint16) string {
	if index == 0 || int(index) > len(cp) {
		return ""
	}
	if entry, ok := cp[index-1].(*ConstantClassInfo); ok {
		return cp.GetUtf8(entry.NameIndex)
	}
	return ""
}

// GetConstant resolves a loadable constant to its Go value: int32, int64,
// float32, float64, or string. Any other entry kind yields nil.
func (cp ConstantPool) GetConstant(index uint16) any {
	if index == 0 || int(index) > len(cp) {
		return nil
	}
	switch entry := cp[index-1].(type) {
	case *ConstantIntegerInfo:
		return entry.Value
	case *ConstantFloatInfo:
		return entry.Value
	case *ConstantLongInfo:
		return entry.Value
	case *ConstantDoubleInfo:
		return entry.Value
	case *ConstantStringInfo:
		return cp.GetUtf8(entry.StringIndex)
	}
	return nil
}

func (cp ConstantPool) GetNameAndType(index uint16) (name, descriptor string) {
	if index == 0 || int(index) > len(cp) {
		return "", ""
	}
	if entry, ok := cp[index-1].(*ConstantNameAndTypeInfo); ok {
		return cp.GetUtf8(entry.NameIndex), cp.GetUtf8(entry.DescriptorIndex)
	}
	return "", ""
}
