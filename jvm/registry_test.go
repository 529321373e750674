package jvm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jbridge/jvm"
	"github.com/dhamidi/jbridge/jvm/jvmtest"
)

func TestRegistryResolveAndMemoize(t *testing.T) {
	provider := jvmtest.NewProvider(
		jvmtest.Object(),
		&jvm.ClassInfo{
			Name:      "com.example.Point",
			Kind:      jvm.KindClass,
			Mods:      jvm.ModPublic,
			SuperName: "java.lang.Object",
			Fields: []jvm.FieldInfo{
				{Name: "x", TypeName: "int"},
				{Name: "y", TypeName: "int"},
				{Name: "ORIGIN", TypeName: "com.example.Point", Mods: jvm.ModPublic | jvm.ModStatic},
			},
		},
	)
	reg := jvm.NewRegistry(provider)
	defer reg.Close()

	point, err := reg.Resolve("com.example.Point")
	require.NoError(t, err)
	assert.Equal(t, "Point", point.SimpleName)
	assert.Equal(t, jvm.KindClass, point.Kind)
	require.NotNil(t, point.Super)
	assert.Equal(t, "java.lang.Object", point.Super.Name)

	// instance and static fields are partitioned
	assert.Contains(t, point.Fields, "x")
	assert.Contains(t, point.StaticFields, "ORIGIN")
	assert.NotContains(t, point.Fields, "ORIGIN")

	// the self-referential static field reuses the descriptor being built
	assert.Same(t, point, point.StaticFields["ORIGIN"].Type)

	again, err := reg.Resolve("com.example.Point")
	require.NoError(t, err)
	assert.Same(t, point, again)
	assert.Equal(t, 1, provider.Lookups["com.example.Point"])
}

func TestRegistryConstantsAndThrows(t *testing.T) {
	provider := jvmtest.NewProvider(
		jvmtest.Object(),
		&jvm.ClassInfo{
			Name: "java.io.IOException", Kind: jvm.KindClass, Mods: jvm.ModPublic,
			SuperName: "java.lang.Object",
		},
		&jvm.ClassInfo{
			Name: "com.example.Config", Kind: jvm.KindClass, Mods: jvm.ModPublic,
			SuperName: "java.lang.Object",
			Fields: []jvm.FieldInfo{
				{Name: "MAX", TypeName: "int", Mods: jvm.ModPublic | jvm.ModStatic | jvm.ModFinal, Constant: int32(100)},
			},
			Methods: []jvm.MethodInfo{
				{Name: "load", ThrowsNames: []string{"java.io.IOException"}, ID: 1},
			},
		},
	)
	reg := jvm.NewRegistry(provider)
	defer reg.Close()

	config, err := reg.Resolve("com.example.Config")
	require.NoError(t, err)

	max, err := config.LookupStaticField("MAX")
	require.NoError(t, err)
	assert.Equal(t, int32(100), max.Constant)

	load, err := config.LookupMethods("load")
	require.NoError(t, err)
	require.Len(t, load.Methods, 1)
	require.Len(t, load.Methods[0].Throws, 1)
	assert.Equal(t, "java.io.IOException", load.Methods[0].Throws[0].Name)
}

func TestRegistryMutualReferences(t *testing.T) {
	provider := jvmtest.NewProvider(
		jvmtest.Object(),
		&jvm.ClassInfo{
			Name: "com.example.Node", Kind: jvm.KindClass, SuperName: "java.lang.Object",
			Fields: []jvm.FieldInfo{{Name: "tree", TypeName: "com.example.Tree"}},
		},
		&jvm.ClassInfo{
			Name: "com.example.Tree", Kind: jvm.KindClass, SuperName: "java.lang.Object",
			Fields: []jvm.FieldInfo{{Name: "root", TypeName: "com.example.Node"}},
		},
	)
	reg := jvm.NewRegistry(provider)
	defer reg.Close()

	node, err := reg.Resolve("com.example.Node")
	require.NoError(t, err)
	tree := node.Fields["tree"].Type
	assert.Equal(t, "com.example.Tree", tree.Name)
	assert.Same(t, node, tree.Fields["root"].Type)
	assert.Equal(t, 1, provider.Lookups["com.example.Node"])
	assert.Equal(t, 1, provider.Lookups["com.example.Tree"])
}

func TestRegistryPrimitivesPreRegistered(t *testing.T) {
	provider := jvmtest.NewProvider()
	reg := jvm.NewRegistry(provider)
	defer reg.Close()

	for _, name := range []string{"boolean", "byte", "char", "short", "int", "long", "float", "double", "void"} {
		p, err := reg.Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, jvm.KindPrimitive, p.Kind, name)
	}
	assert.Empty(t, provider.Lookups)
}

func TestRegistryArrays(t *testing.T) {
	provider := jvmtest.NewProvider(jvmtest.Object(), jvmtest.String())
	reg := jvm.NewRegistry(provider)
	defer reg.Close()

	arr, err := reg.Resolve("java.lang.String[]")
	require.NoError(t, err)
	assert.Equal(t, jvm.KindArray, arr.Kind)
	assert.Equal(t, "String[]", arr.SimpleName)
	require.NotNil(t, arr.Component)
	assert.Equal(t, "java.lang.String", arr.Component.Name)
	require.NotNil(t, arr.Super)
	assert.Equal(t, "java.lang.Object", arr.Super.Name)

	matrix, err := reg.Resolve("int[][]")
	require.NoError(t, err)
	assert.Equal(t, jvm.KindArray, matrix.Component.Kind)
	assert.Equal(t, jvm.KindPrimitive, matrix.Component.Component.Kind)
}

func TestRegistryObjectFallback(t *testing.T) {
	// a provider that knows nothing still resolves the root type
	reg := jvm.NewRegistry(jvmtest.NewProvider())
	defer reg.Close()

	obj, err := reg.Resolve("java.lang.Object")
	require.NoError(t, err)
	assert.Equal(t, jvm.KindClass, obj.Kind)
	assert.Nil(t, obj.Super)
}

func TestRegistryMissingClass(t *testing.T) {
	provider := jvmtest.NewProvider(
		jvmtest.Object(),
		&jvm.ClassInfo{
			Name: "com.example.Broken", Kind: jvm.KindClass, SuperName: "java.lang.Object",
			Fields: []jvm.FieldInfo{{Name: "gone", TypeName: "com.example.Missing"}},
		},
	)
	reg := jvm.NewRegistry(provider)
	defer reg.Close()

	_, err := reg.Resolve("com.example.Broken")
	var notFound *jvm.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "com.example.Missing", notFound.Class)

	// the failed session rolled back: resolving again consults the
	// provider again instead of serving a half-built descriptor
	_, err = reg.Resolve("com.example.Broken")
	require.Error(t, err)
	assert.Equal(t, 2, provider.Lookups["com.example.Broken"])
}

func TestRegistryVariadicRequiresArray(t *testing.T) {
	provider := jvmtest.NewProvider(
		jvmtest.Object(),
		&jvm.ClassInfo{
			Name: "com.example.Bad", Kind: jvm.KindClass, SuperName: "java.lang.Object",
			Methods: []jvm.MethodInfo{
				{Name: "oops", ParamNames: []string{"int"}, Variadic: true, ID: 1},
			},
		},
	)
	reg := jvm.NewRegistry(provider)
	defer reg.Close()

	_, err := reg.Resolve("com.example.Bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an array")
}

func TestRegistryClose(t *testing.T) {
	provider := jvmtest.NewProvider(jvmtest.Object(), jvmtest.String())
	reg := jvm.NewRegistry(provider)

	s, err := reg.Resolve("java.lang.String")
	require.NoError(t, err)

	reg.Close()
	assert.True(t, s.Released())
	assert.Nil(t, s.Super)

	_, err = reg.Resolve("java.lang.Object")
	require.Error(t, err)
}
