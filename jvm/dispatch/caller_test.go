package dispatch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jbridge/jvm"
	"github.com/dhamidi/jbridge/jvm/convert"
	"github.com/dhamidi/jbridge/jvm/dispatch"
	"github.com/dhamidi/jbridge/jvm/jvmtest"
)

func newFixture(t *testing.T) (*jvmtest.Env, *jvm.Registry, *dispatch.Caller) {
	t.Helper()
	provider := jvmtest.NewProvider(
		jvmtest.Object(),
		jvmtest.String(),
		&jvm.ClassInfo{
			Name: "com.example.Calc", Kind: jvm.KindClass, Mods: jvm.ModPublic,
			SuperName: "java.lang.Object",
			Ctors: []jvm.MethodInfo{
				{Name: "<init>", ID: 10},
				{Name: "<init>", ParamNames: []string{"int"}, ID: 11},
			},
			Methods: []jvm.MethodInfo{
				{Name: "add", ParamNames: []string{"int", "int"}, ReturnName: "int", ID: 20},
				{Name: "name", ReturnName: "java.lang.String", ID: 21},
				{Name: "sum", ParamNames: []string{"long[]"}, ReturnName: "long", Variadic: true, ID: 22},
				{Name: "self", ReturnName: "com.example.Calc", ID: 23},
				{Name: "initial", ParamNames: []string{"char"}, ReturnName: "char", ID: 25},
				{Name: "parse", Mods: jvm.ModPublic | jvm.ModStatic,
					ParamNames: []string{"java.lang.String"}, ReturnName: "int", ID: 24},
			},
		},
		&jvm.ClassInfo{
			Name: "com.example.SubCalc", Kind: jvm.KindClass, Mods: jvm.ModPublic,
			SuperName: "com.example.Calc",
		},
	)
	env := jvmtest.NewEnv()
	reg := jvm.NewRegistry(provider)
	t.Cleanup(reg.Close)
	return env, reg, dispatch.NewCaller(env, reg, convert.NewCatalog())
}

func newReceiver(t *testing.T, env *jvmtest.Env, reg *jvm.Registry, class string) *jvm.Object {
	t.Helper()
	desc, err := reg.Resolve(class)
	require.NoError(t, err)
	return &jvm.Object{H: env.NewHandle(class), T: desc}
}

func TestCallMethod(t *testing.T) {
	env, reg, caller := newFixture(t)
	recv := newReceiver(t, env, reg, "com.example.Calc")

	env.OnCall = func(h jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		assert.Equal(t, recv.H, h)
		assert.Equal(t, jvm.MethodID(20), id)
		require.Len(t, args, 2)
		return jvm.IntOf(int32(args[0].I + args[1].I)), nil
	}

	got, err := caller.CallMethod(recv, "add", int32(2), int32(3))
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	// only the receiver handle survives the call
	assert.Equal(t, 1, env.LiveHandles())
	assert.Empty(t, env.Faults())
}

func TestCallMethodInherited(t *testing.T) {
	env, reg, caller := newFixture(t)
	recv := newReceiver(t, env, reg, "com.example.SubCalc")

	env.OnCall = func(h jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		assert.Equal(t, jvm.MethodID(20), id)
		return jvm.IntOf(9), nil
	}

	got, err := caller.CallMethod(recv, "add", int32(4), int32(5))
	require.NoError(t, err)
	assert.Equal(t, int64(9), got)
}

func TestCallMethodStringReturn(t *testing.T) {
	env, reg, caller := newFixture(t)
	recv := newReceiver(t, env, reg, "com.example.Calc")

	env.OnCall = func(h jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		s, err := env.NewString("calc")
		require.NoError(t, err)
		return jvm.RefOf(s), nil
	}

	got, err := caller.CallMethod(recv, "name")
	require.NoError(t, err)
	assert.Equal(t, "calc", got)

	// the returned string handle was read out and released
	assert.Equal(t, 1, env.LiveHandles())
	assert.Empty(t, env.Faults())
}

func TestCallMethodObjectReturnTypedByRuntimeClass(t *testing.T) {
	env, reg, caller := newFixture(t)
	recv := newReceiver(t, env, reg, "com.example.Calc")

	env.OnCall = func(h jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		// the declared return is Calc, but the runtime object is a SubCalc
		return jvm.RefOf(env.NewHandle("com.example.SubCalc")), nil
	}

	got, err := caller.CallMethod(recv, "self")
	require.NoError(t, err)
	obj, ok := got.(*jvm.Object)
	require.True(t, ok)
	assert.Equal(t, "com.example.SubCalc", obj.T.Name)
}

func TestCallMethodCharRoundTrip(t *testing.T) {
	env, reg, caller := newFixture(t)
	recv := newReceiver(t, env, reg, "com.example.Calc")

	env.OnCall = func(h jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		assert.Equal(t, jvm.MethodID(25), id)
		require.Len(t, args, 1)
		return args[0], nil
	}

	got, err := caller.CallMethod(recv, "initial", "é")
	require.NoError(t, err)
	assert.Equal(t, "é", got)
}

func TestCallMethodNullReturn(t *testing.T) {
	env, reg, caller := newFixture(t)
	recv := newReceiver(t, env, reg, "com.example.Calc")

	env.OnCall = func(h jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		return jvm.Null(), nil
	}

	got, err := caller.CallMethod(recv, "self")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCallMethodVariadic(t *testing.T) {
	env, reg, caller := newFixture(t)
	recv := newReceiver(t, env, reg, "com.example.Calc")

	env.OnCall = func(h jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		require.Len(t, args, 1)
		total := int64(0)
		for i := 0; i < env.ArrayLen(args[0].Ref); i++ {
			total += env.ArrayElement(args[0].Ref, i).I
		}
		return jvm.LongOf(total), nil
	}

	got, err := caller.CallMethod(recv, "sum", int64(1), int64(2), int64(3))
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)
	assert.Equal(t, 1, env.LiveHandles(), "the tail array must be released after the call")
}

func TestCallMethodForeignException(t *testing.T) {
	env, reg, caller := newFixture(t)
	recv := newReceiver(t, env, reg, "com.example.Calc")

	env.OnCall = func(h jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		env.Throw("java.lang.ArithmeticException", "boom")
		return jvm.Value{Kind: jvm.VoidValue}, nil
	}

	_, err := caller.CallMethod(recv, "add", int32(1), int32(2))
	var foreign *jvm.ForeignError
	require.ErrorAs(t, err, &foreign)
	assert.Equal(t, "java.lang.ArithmeticException", foreign.Class)

	// the exception is consumed, not left pending
	assert.NoError(t, env.PendingException())
	assert.Equal(t, 1, env.LiveHandles())
}

func TestCallMethodErrorWithPendingException(t *testing.T) {
	env, reg, caller := newFixture(t)
	recv := newReceiver(t, env, reg, "com.example.Calc")

	// a runtime may report failure through both channels at once
	env.OnCall = func(h jvm.Handle, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		env.Throw("java.lang.IllegalStateException", "boom")
		return jvm.Value{Kind: jvm.VoidValue}, errors.New("call failed")
	}

	_, err := caller.CallMethod(recv, "add", int32(1), int32(2))
	var foreign *jvm.ForeignError
	require.ErrorAs(t, err, &foreign)
	assert.Equal(t, "java.lang.IllegalStateException", foreign.Class)

	// the throwable must not stay pending into the next operation
	assert.NoError(t, env.PendingException())
	assert.Equal(t, 1, env.LiveHandles())
}

func TestNewErrorWithPendingException(t *testing.T) {
	env, reg, caller := newFixture(t)
	calc, err := reg.Resolve("com.example.Calc")
	require.NoError(t, err)

	env.OnNew = func(d *jvm.TypeDescriptor, id jvm.MethodID, args []jvm.Value) (jvm.Handle, error) {
		env.Throw("java.lang.OutOfMemoryError", "heap")
		return 0, errors.New("allocation failed")
	}

	_, err = caller.New(calc)
	var foreign *jvm.ForeignError
	require.ErrorAs(t, err, &foreign)
	assert.NoError(t, env.PendingException())
	assert.Equal(t, 0, env.LiveHandles())
}

func TestCallStatic(t *testing.T) {
	env, reg, caller := newFixture(t)
	calc, err := reg.Resolve("com.example.Calc")
	require.NoError(t, err)

	env.OnStatic = func(d *jvm.TypeDescriptor, id jvm.MethodID, args []jvm.Value) (jvm.Value, error) {
		assert.Equal(t, jvm.MethodID(24), id)
		return jvm.IntOf(42), nil
	}

	got, err := caller.CallStatic(calc, "parse", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
	assert.Equal(t, 0, env.LiveHandles())
}

func TestCallStaticNotInherited(t *testing.T) {
	_, reg, caller := newFixture(t)
	sub, err := reg.Resolve("com.example.SubCalc")
	require.NoError(t, err)

	_, err = caller.CallStatic(sub, "parse", "42")
	var notFound *jvm.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "com.example.SubCalc", notFound.Class)
}

func TestNew(t *testing.T) {
	env, reg, caller := newFixture(t)
	calc, err := reg.Resolve("com.example.Calc")
	require.NoError(t, err)

	obj, err := caller.New(calc, int32(7))
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Same(t, calc, obj.T)
	assert.Equal(t, 1, env.LiveHandles())
}

func TestNewReleasesHandleOnException(t *testing.T) {
	env, reg, caller := newFixture(t)
	calc, err := reg.Resolve("com.example.Calc")
	require.NoError(t, err)

	env.OnNew = func(d *jvm.TypeDescriptor, id jvm.MethodID, args []jvm.Value) (jvm.Handle, error) {
		h := env.NewHandle("com.example.Calc")
		env.Throw("java.lang.IllegalStateException", "ctor failed")
		return h, nil
	}

	_, err = caller.New(calc)
	var foreign *jvm.ForeignError
	require.ErrorAs(t, err, &foreign)
	assert.Equal(t, 0, env.LiveHandles(), "a half-constructed object must not leak")
	assert.Empty(t, env.Faults())
}

func TestNewWithoutConstructors(t *testing.T) {
	_, reg, caller := newFixture(t)
	sub, err := reg.Resolve("com.example.SubCalc")
	require.NoError(t, err)

	// constructors are not inherited
	_, err = caller.New(sub)
	var notFound *jvm.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "com.example.SubCalc", notFound.Class)
}
