package jvm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jbridge/jvm"
	"github.com/dhamidi/jbridge/jvm/jvmtest"
)

func newHierarchy(t *testing.T) *jvm.Registry {
	t.Helper()
	provider := jvmtest.NewProvider(
		jvmtest.Object(),
		jvmtest.String(),
		&jvm.ClassInfo{
			Name: "java.lang.Comparable", Kind: jvm.KindInterface, Mods: jvm.ModPublic | jvm.ModAbstract,
		},
		&jvm.ClassInfo{
			Name: "com.example.Base", Kind: jvm.KindClass, Mods: jvm.ModPublic,
			SuperName:      "java.lang.Object",
			InterfaceNames: []string{"java.lang.Comparable"},
			Fields: []jvm.FieldInfo{
				{Name: "shared", TypeName: "int"},
			},
			Methods: []jvm.MethodInfo{
				{Name: "greet", ParamNames: []string{"int"}, ReturnName: "void", ID: 1},
				{Name: "greet", ParamNames: []string{"java.lang.String"}, ReturnName: "void", ID: 2},
				{Name: "create", Mods: jvm.ModPublic | jvm.ModStatic, ReturnName: "com.example.Base", ID: 3},
			},
		},
		&jvm.ClassInfo{
			Name: "com.example.Derived", Kind: jvm.KindClass, Mods: jvm.ModPublic,
			SuperName: "com.example.Base",
			Methods: []jvm.MethodInfo{
				// overrides greet(int) and adds greet(long)
				{Name: "greet", ParamNames: []string{"int"}, ReturnName: "void", ID: 4},
				{Name: "greet", ParamNames: []string{"long"}, ReturnName: "void", ID: 5},
			},
		},
	)
	reg := jvm.NewRegistry(provider)
	t.Cleanup(reg.Close)
	return reg
}

func TestLookupMethodsMergesOverloads(t *testing.T) {
	reg := newHierarchy(t)
	derived, err := reg.Resolve("com.example.Derived")
	require.NoError(t, err)

	group, err := derived.LookupMethods("greet")
	require.NoError(t, err)
	require.Len(t, group.Methods, 3)

	// the overriding greet(int) shadows the base declaration
	byID := map[jvm.MethodID]bool{}
	for _, m := range group.Methods {
		byID[m.ID] = true
	}
	assert.True(t, byID[4], "derived greet(int)")
	assert.True(t, byID[5], "derived greet(long)")
	assert.True(t, byID[2], "inherited greet(String)")
	assert.False(t, byID[1], "shadowed base greet(int)")
}

func TestLookupMethodsNotFound(t *testing.T) {
	reg := newHierarchy(t)
	derived, err := reg.Resolve("com.example.Derived")
	require.NoError(t, err)

	_, err = derived.LookupMethods("missing")
	var notFound *jvm.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "com.example.Derived", notFound.Class)
	assert.Equal(t, "missing", notFound.Member)
}

func TestStaticMembersNotInherited(t *testing.T) {
	reg := newHierarchy(t)
	base, err := reg.Resolve("com.example.Base")
	require.NoError(t, err)
	derived, err := reg.Resolve("com.example.Derived")
	require.NoError(t, err)

	_, err = base.LookupStaticMethods("create")
	require.NoError(t, err)

	_, err = derived.LookupStaticMethods("create")
	var notFound *jvm.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestInstanceFieldsInherited(t *testing.T) {
	reg := newHierarchy(t)
	derived, err := reg.Resolve("com.example.Derived")
	require.NoError(t, err)

	f, err := derived.LookupField("shared")
	require.NoError(t, err)
	assert.Equal(t, "int", f.Type.Name)
}

func TestAssignableTo(t *testing.T) {
	reg := newHierarchy(t)
	resolve := func(name string) *jvm.TypeDescriptor {
		d, err := reg.Resolve(name)
		require.NoError(t, err, name)
		return d
	}

	object := resolve("java.lang.Object")
	comparable := resolve("java.lang.Comparable")
	base := resolve("com.example.Base")
	derived := resolve("com.example.Derived")
	intPrim := resolve("int")

	assert.True(t, derived.AssignableTo(derived))
	assert.True(t, derived.AssignableTo(base))
	assert.True(t, derived.AssignableTo(object))
	assert.True(t, derived.AssignableTo(comparable), "interface through the super chain")
	assert.False(t, base.AssignableTo(derived))
	assert.False(t, intPrim.AssignableTo(object), "primitives are not references")
	assert.False(t, object.AssignableTo(intPrim))

	derivedArr := resolve("com.example.Derived[]")
	baseArr := resolve("com.example.Base[]")
	intArr := resolve("int[]")
	assert.True(t, derivedArr.AssignableTo(baseArr), "reference arrays are covariant")
	assert.True(t, derivedArr.AssignableTo(object))
	assert.False(t, baseArr.AssignableTo(derivedArr))
	assert.False(t, intArr.AssignableTo(baseArr), "primitive arrays are not covariant")
}

func TestMethodSignature(t *testing.T) {
	reg := newHierarchy(t)
	base, err := reg.Resolve("com.example.Base")
	require.NoError(t, err)

	group, err := base.LookupMethods("greet")
	require.NoError(t, err)
	sigs := make(map[string]bool)
	for _, m := range group.Methods {
		sigs[m.Signature()] = true
	}
	assert.True(t, sigs["greet(int)"])
	assert.True(t, sigs["greet(java.lang.String)"])
}

func TestVisibility(t *testing.T) {
	assert.Equal(t, jvm.VisibilityPublic, jvm.ModPublic.Visibility())
	assert.Equal(t, jvm.VisibilityProtected, jvm.ModProtected.Visibility())
	assert.Equal(t, jvm.VisibilityPrivate, jvm.ModPrivate.Visibility())
	// package-private collapses to private
	assert.Equal(t, jvm.VisibilityPrivate, jvm.Modifiers(0).Visibility())
}

func TestNestedClassNames(t *testing.T) {
	provider := jvmtest.NewProvider(
		jvmtest.Object(),
		&jvm.ClassInfo{
			Name: "com.example.Outer", Kind: jvm.KindClass, SuperName: "java.lang.Object",
			NestedNames: []string{"com.example.Outer$Inner", "com.example.Outer$Other"},
		},
	)
	reg := jvm.NewRegistry(provider)
	defer reg.Close()

	outer, err := reg.Resolve("com.example.Outer")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"com.example.Outer$Inner", "com.example.Outer$Other"},
		outer.NestedClassNames())
	qualified, ok := outer.NestedClassName("Inner")
	require.True(t, ok)
	assert.Equal(t, "com.example.Outer$Inner", qualified)
}
