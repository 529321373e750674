package convert_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jbridge/jvm"
	"github.com/dhamidi/jbridge/jvm/convert"
	"github.com/dhamidi/jbridge/jvm/jvmtest"
)

func class(name string) *jvm.TypeDescriptor {
	return &jvm.TypeDescriptor{Name: name, Kind: jvm.KindClass}
}

func array(component *jvm.TypeDescriptor) *jvm.TypeDescriptor {
	return &jvm.TypeDescriptor{
		Name:      component.Name + "[]",
		Kind:      jvm.KindArray,
		Component: component,
	}
}

func TestNilConvertsToAnyReference(t *testing.T) {
	cat := convert.NewCatalog()
	for _, target := range []*jvm.TypeDescriptor{
		class("java.lang.String"),
		class("com.example.Widget"),
		array(class("java.lang.Object")),
	} {
		q, conv := cat.Best(nil, target)
		assert.Equal(t, convert.Perfect, q, target.Name)
		v, owned, err := conv(jvmtest.NewEnv())
		require.NoError(t, err)
		assert.False(t, owned)
		assert.True(t, v.IsNull())
	}
}

func TestStringConversions(t *testing.T) {
	cat := convert.NewCatalog()
	env := jvmtest.NewEnv()

	q, conv := cat.Best("hello", class("java.lang.String"))
	assert.Equal(t, convert.Great, q)
	v, owned, err := conv(env)
	require.NoError(t, err)
	assert.True(t, owned, "a created string is a reference the frame must release")
	s, err := env.GetString(v.Ref)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	for _, name := range []string{"java.lang.CharSequence", "java.lang.Object", "java.lang.Comparable"} {
		q, _ := cat.Best("hello", class(name))
		assert.Equal(t, convert.Good, q, name)
	}

	q, _ = cat.Best("hello", class("java.util.List"))
	assert.Equal(t, convert.Fail, q)
}

func TestStringToCharacterBox(t *testing.T) {
	cat := convert.NewCatalog()
	env := jvmtest.NewEnv()

	q, conv := cat.Best("x", class("java.lang.Character"))
	assert.Equal(t, convert.Good, q)
	v, owned, err := conv(env)
	require.NoError(t, err)
	assert.True(t, owned)
	assert.Equal(t, int64('x'), env.Boxed(v.Ref).I)

	q, _ = cat.Best("xy", class("java.lang.Character"))
	assert.Equal(t, convert.Fail, q)
}

func TestEnumByName(t *testing.T) {
	cat := convert.NewCatalog()
	env := jvmtest.NewEnv()
	color := &jvm.TypeDescriptor{
		Name: "com.example.Color", Kind: jvm.KindEnum,
		EnumConstants: []string{"RED", "GREEN"},
	}

	q, conv := cat.Best("RED", color)
	assert.Equal(t, convert.Great, q)
	v, owned, err := conv(env)
	require.NoError(t, err)
	assert.True(t, owned)
	name, err := env.GetObjectClass(v.Ref)
	require.NoError(t, err)
	assert.Equal(t, "com.example.Color", name)

	q, _ = cat.Best("BLUE", color)
	assert.Equal(t, convert.Fail, q)
}

type truthy struct{}

func (truthy) Bool() bool { return true }

func TestBoolConversions(t *testing.T) {
	cat := convert.NewCatalog()

	q, _ := cat.Best(true, class("java.lang.Boolean"))
	assert.Equal(t, convert.Great, q)
	q, _ = cat.Best(true, class("java.lang.Object"))
	assert.Equal(t, convert.Good, q)
	q, _ = cat.Best(truthy{}, class("java.lang.Boolean"))
	assert.Equal(t, convert.Good, q)
	q, _ = cat.Best(true, class("java.lang.String"))
	assert.Equal(t, convert.Fail, q)
}

func TestIntegralBoxing(t *testing.T) {
	cat := convert.NewCatalog()
	env := jvmtest.NewEnv()

	q, conv := cat.Best(int64(5), class("java.lang.Integer"))
	assert.Equal(t, convert.Great, q)
	v, _, err := conv(env)
	require.NoError(t, err)
	assert.Equal(t, jvm.IntValue, env.Boxed(v.Ref).Kind)
	assert.Equal(t, int64(5), env.Boxed(v.Ref).I)

	q, conv = cat.Best(int64(300), class("java.lang.Byte"))
	assert.Equal(t, convert.Bad, q)
	_, _, err = conv(env)
	var overflow *convert.OverflowError
	require.ErrorAs(t, err, &overflow)

	// Number and Object take the widest integral box
	q, conv = cat.Best(int64(5), class("java.lang.Number"))
	assert.Equal(t, convert.Good, q)
	v, _, err = conv(env)
	require.NoError(t, err)
	assert.Equal(t, jvm.LongValue, env.Boxed(v.Ref).Kind)
}

func TestFloatBoxing(t *testing.T) {
	cat := convert.NewCatalog()

	q, _ := cat.Best(1.5, class("java.lang.Double"))
	assert.Equal(t, convert.Great, q)
	q, _ = cat.Best(1.5, class("java.lang.Float"))
	assert.Equal(t, convert.Good, q)
	q, _ = cat.Best(float32(1.5), class("java.lang.Float"))
	assert.Equal(t, convert.Great, q)
	q, _ = cat.Best(1.5, class("java.lang.Number"))
	assert.Equal(t, convert.Good, q)
}

func TestObjectConversions(t *testing.T) {
	cat := convert.NewCatalog()
	env := jvmtest.NewEnv()

	base := class("com.example.Base")
	derived := &jvm.TypeDescriptor{Name: "com.example.Derived", Kind: jvm.KindClass, Super: base}
	other := class("com.example.Other")

	obj := &jvm.Object{H: env.NewHandle("com.example.Derived"), T: derived}

	q, conv := cat.Best(obj, derived)
	assert.Equal(t, convert.Perfect, q)
	before := env.LiveHandles()
	v, owned, err := conv(env)
	require.NoError(t, err)
	assert.True(t, owned, "passing an object acquires a fresh reference")
	assert.Equal(t, before+1, env.LiveHandles())
	assert.NotEqual(t, obj.H, v.Ref)

	q, _ = cat.Best(obj, base)
	assert.Equal(t, convert.Great, q)
	q, _ = cat.Best(obj, other)
	assert.Equal(t, convert.Fail, q)
}

func TestBigNumbersNeedRuntimeSupport(t *testing.T) {
	cat := convert.NewCatalog()

	q, conv := cat.Best(big.NewInt(7), class("java.math.BigInteger"))
	assert.Equal(t, convert.Great, q)
	// the fake runtime has no big-number bridge
	_, _, err := conv(jvmtest.NewEnv())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")

	q, _ = cat.Best(big.NewRat(1, 3), class("java.math.BigDecimal"))
	assert.Equal(t, convert.Great, q)
	q, _ = cat.Best(big.NewInt(7), class("java.math.BigDecimal"))
	assert.Equal(t, convert.Fail, q)
}

func TestDateNeedsRuntimeSupport(t *testing.T) {
	cat := convert.NewCatalog()
	q, conv := cat.Best(time.Now(), class("java.util.Date"))
	assert.Equal(t, convert.Great, q)
	_, _, err := conv(jvmtest.NewEnv())
	require.Error(t, err)
}

func TestByteSliceToArray(t *testing.T) {
	cat := convert.NewCatalog()
	env := jvmtest.NewEnv()
	target := array(primitive("byte"))

	q, conv := cat.Best([]byte{1, 2, 3}, target)
	assert.Equal(t, convert.Great, q)
	v, owned, err := conv(env)
	require.NoError(t, err)
	assert.True(t, owned)
	assert.Equal(t, 3, env.ArrayLen(v.Ref))
	assert.Equal(t, int64(2), env.ArrayElement(v.Ref, 1).I)
}

func TestPrimitiveSlices(t *testing.T) {
	cat := convert.NewCatalog()

	tests := []struct {
		name   string
		value  any
		target *jvm.TypeDescriptor
		want   convert.Quality
	}{
		{"int64 to long[]", []int64{1}, array(primitive("long")), convert.Great},
		{"int to long[]", []int{1}, array(primitive("long")), convert.Good},
		{"int32 to int[]", []int32{1}, array(primitive("int")), convert.Great},
		{"float64 to double[]", []float64{1}, array(primitive("double")), convert.Great},
		{"bool to boolean[]", []bool{true}, array(primitive("boolean")), convert.Great},
		{"int32 to long[] mismatch", []int32{1}, array(primitive("long")), convert.Fail},
		{"slice to reference array", []int64{1}, array(class("java.lang.Long")), convert.Fail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := cat.Best(tt.value, tt.target)
			assert.Equal(t, tt.want, q)
		})
	}
}

type marker struct{}

func TestRegisteredRules(t *testing.T) {
	target := class("java.lang.String")

	t.Run("custom rule extends the catalog", func(t *testing.T) {
		cat := convert.NewCatalog()
		q, _ := cat.Best(marker{}, target)
		assert.Equal(t, convert.Fail, q)

		cat.Register(
			func(v any) bool { _, ok := v.(marker); return ok },
			convert.TargetNamed("java.lang.String"),
			func(value any, t *jvm.TypeDescriptor) (convert.Quality, convert.Conversion) {
				return convert.Perfect, func(jvm.Env) (jvm.Value, bool, error) {
					return jvm.LongOf(99), false, nil
				}
			},
		)
		q, conv := cat.Best(marker{}, target)
		assert.Equal(t, convert.Perfect, q)
		v, _, err := conv(jvmtest.NewEnv())
		require.NoError(t, err)
		assert.Equal(t, int64(99), v.I)
	})

	t.Run("equal quality keeps the earlier rule", func(t *testing.T) {
		cat := convert.NewCatalog()
		cat.Register(nil, nil,
			func(value any, t *jvm.TypeDescriptor) (convert.Quality, convert.Conversion) {
				if _, ok := value.(string); !ok {
					return convert.Fail, nil
				}
				return convert.Great, func(jvm.Env) (jvm.Value, bool, error) {
					return jvm.LongOf(1), false, nil
				}
			},
		)
		// the builtin string rule already reports Great for this pair
		env := jvmtest.NewEnv()
		q, conv := cat.Best("hi", target)
		assert.Equal(t, convert.Great, q)
		v, _, err := conv(env)
		require.NoError(t, err)
		assert.Equal(t, jvm.RefValue, v.Kind, "the built-in rule keeps priority on ties")
	})

	t.Run("higher quality displaces a builtin", func(t *testing.T) {
		cat := convert.NewCatalog()
		cat.Register(nil, convert.TargetNamed("java.lang.String"),
			func(value any, t *jvm.TypeDescriptor) (convert.Quality, convert.Conversion) {
				if _, ok := value.(string); !ok {
					return convert.Fail, nil
				}
				return convert.Perfect, func(jvm.Env) (jvm.Value, bool, error) {
					return jvm.LongOf(2), false, nil
				}
			},
		)
		q, conv := cat.Best("hi", target)
		assert.Equal(t, convert.Perfect, q)
		v, _, err := conv(jvmtest.NewEnv())
		require.NoError(t, err)
		assert.Equal(t, int64(2), v.I)
	})
}
