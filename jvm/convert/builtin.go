package convert

import (
	"fmt"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/dhamidi/jbridge/jvm"
)

// Booler is the duck type the boolean rule accepts besides a canonical bool.
type Booler interface {
	Bool() bool
}

// BigNumberEnv is the optional Env extension the big-number rules delegate
// to. Bridging internals live with the runtime collaborator, not here.
type BigNumberEnv interface {
	NewBigInteger(n *big.Int) (jvm.Handle, error)
	NewBigDecimal(digits string) (jvm.Handle, error)
}

// DateEnv is the optional Env extension for date bridging.
type DateEnv interface {
	NewDate(t time.Time) (jvm.Handle, error)
}

// installBuiltins appends the built-in reference-target rules in priority
// order. They run before any custom rule for every resolution.
func (c *Catalog) installBuiltins() {
	c.rules = append(c.rules,
		rule{probe: probeNil, source: func(v any) bool { return v == nil }},
		rule{probe: probeObject, source: isObject},
		rule{probe: probeEnumName, source: isString, target: isEnum},
		rule{probe: probeString, source: isString},
		rule{probe: probeChar, source: isString, target: TargetNamed("java.lang.Character")},
		rule{probe: probeBool},
		rule{probe: probeIntegralBox},
		rule{probe: probeFloatBox},
		rule{probe: probeBigNumber},
		rule{probe: probeDate, target: TargetNamed("java.util.Date")},
		rule{probe: probeByteSlice},
		rule{probe: probePrimitiveSlice},
	)
}

func isObject(v any) bool { _, ok := v.(*jvm.Object); return ok }
func isString(v any) bool { _, ok := v.(string); return ok }
func isEnum(t *jvm.TypeDescriptor) bool {
	return t.Kind == jvm.KindEnum
}

func probeNil(_ any, _ *jvm.TypeDescriptor) (Quality, Conversion) {
	return Perfect, func(jvm.Env) (jvm.Value, bool, error) {
		return jvm.Null(), false, nil
	}
}

func probeObject(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	o := value.(*jvm.Object)
	if o.T == nil {
		return Fail, nil
	}
	var q Quality
	switch {
	case o.T == target || o.T.Name == target.Name:
		q = Perfect
	case o.T.AssignableTo(target):
		q = Great
	default:
		return Fail, nil
	}
	return q, func(env jvm.Env) (jvm.Value, bool, error) {
		h, err := env.NewRef(o.H)
		if err != nil {
			return jvm.Value{}, false, err
		}
		return jvm.RefOf(h), true, nil
	}
}

func probeEnumName(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	name := value.(string)
	for _, constant := range target.EnumConstants {
		if constant == name {
			return Great, func(env jvm.Env) (jvm.Value, bool, error) {
				h, err := env.EnumConstant(target, name)
				if err != nil {
					return jvm.Value{}, false, err
				}
				return jvm.RefOf(h), true, nil
			}
		}
	}
	return Fail, nil
}

func probeString(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	s := value.(string)
	var q Quality
	switch target.Name {
	case "java.lang.String":
		q = Great
	case "java.lang.CharSequence", "java.lang.Object", "java.lang.Comparable":
		q = Good
	default:
		return Fail, nil
	}
	return q, func(env jvm.Env) (jvm.Value, bool, error) {
		h, err := env.NewString(s)
		if err != nil {
			return jvm.Value{}, false, err
		}
		return jvm.RefOf(h), true, nil
	}
}

func probeChar(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	s := value.(string)
	if utf8.RuneCountInString(s) != 1 {
		return Fail, nil
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r > JCharMax {
		return Bad, overflowConversion(value, target.Name)
	}
	return Good, boxConversion(jvm.CharOf(r), target)
}

func probeBool(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	var b bool
	var q Quality
	switch v := value.(type) {
	case bool:
		b, q = v, Great
	case Booler:
		b, q = v.Bool(), Good
	default:
		return Fail, nil
	}
	switch target.Name {
	case "java.lang.Boolean":
	case "java.lang.Object":
		if q > Good {
			q = Good
		}
	default:
		return Fail, nil
	}
	return q, boxConversion(jvm.BoolOf(b), target)
}

var integralWrappers = map[string]string{
	"java.lang.Byte":      "byte",
	"java.lang.Short":     "short",
	"java.lang.Integer":   "int",
	"java.lang.Long":      "long",
	"java.lang.Character": "char",
}

func probeIntegralBox(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	n, over, ok := hostInt(value)
	if !ok {
		return Fail, nil
	}
	primitive, exact := integralWrappers[target.Name]
	if !exact {
		switch target.Name {
		case "java.lang.Number", "java.lang.Object":
			primitive = "long"
		default:
			return Fail, nil
		}
	}
	if over {
		return Bad, overflowConversion(value, target.Name)
	}
	var boxed jvm.Value
	switch primitive {
	case "byte":
		if n < JByteMin || n > JByteMax {
			return Bad, overflowConversion(value, target.Name)
		}
		boxed = jvm.ByteOf(int8(n))
	case "short":
		if n < JShortMin || n > JShortMax {
			return Bad, overflowConversion(value, target.Name)
		}
		boxed = jvm.ShortOf(int16(n))
	case "int":
		if n < JIntMin || n > JIntMax {
			return Bad, overflowConversion(value, target.Name)
		}
		boxed = jvm.IntOf(int32(n))
	case "char":
		if n < 0 || n > JCharMax {
			return Bad, overflowConversion(value, target.Name)
		}
		boxed = jvm.CharOf(rune(n))
	default:
		boxed = jvm.LongOf(n)
	}
	q := Great
	if !exact {
		q = Good
	}
	return q, boxConversion(boxed, target)
}

func probeFloatBox(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	f, wide, ok := hostFloat(value)
	if !ok {
		return Fail, nil
	}
	// the widest float type is preferred for boxing
	switch target.Name {
	case "java.lang.Double":
		return Great, boxConversion(jvm.DoubleOf(f), target)
	case "java.lang.Float":
		if wide {
			return Good, boxConversion(jvm.FloatOf(float32(f)), target)
		}
		return Great, boxConversion(jvm.FloatOf(float32(f)), target)
	case "java.lang.Number", "java.lang.Object":
		return Good, boxConversion(jvm.DoubleOf(f), target)
	}
	return Fail, nil
}

func boxConversion(v jvm.Value, wrapper *jvm.TypeDescriptor) Conversion {
	return func(env jvm.Env) (jvm.Value, bool, error) {
		h, err := env.BoxPrimitive(v, wrapper)
		if err != nil {
			return jvm.Value{}, false, err
		}
		return jvm.RefOf(h), true, nil
	}
}

func probeBigNumber(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	switch v := value.(type) {
	case *big.Int:
		if target.Name != "java.math.BigInteger" {
			return Fail, nil
		}
		return Great, func(env jvm.Env) (jvm.Value, bool, error) {
			bridge, ok := env.(BigNumberEnv)
			if !ok {
				return jvm.Value{}, false, fmt.Errorf("%s bridging not supported by this runtime", target.Name)
			}
			h, err := bridge.NewBigInteger(v)
			if err != nil {
				return jvm.Value{}, false, err
			}
			return jvm.RefOf(h), true, nil
		}
	case *big.Rat:
		if target.Name != "java.math.BigDecimal" {
			return Fail, nil
		}
		return Great, func(env jvm.Env) (jvm.Value, bool, error) {
			bridge, ok := env.(BigNumberEnv)
			if !ok {
				return jvm.Value{}, false, fmt.Errorf("%s bridging not supported by this runtime", target.Name)
			}
			h, err := bridge.NewBigDecimal(v.FloatString(64))
			if err != nil {
				return jvm.Value{}, false, err
			}
			return jvm.RefOf(h), true, nil
		}
	}
	return Fail, nil
}

func probeDate(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	t, ok := value.(time.Time)
	if !ok {
		return Fail, nil
	}
	return Great, func(env jvm.Env) (jvm.Value, bool, error) {
		bridge, ok := env.(DateEnv)
		if !ok {
			return jvm.Value{}, false, fmt.Errorf("%s bridging not supported by this runtime", target.Name)
		}
		h, err := bridge.NewDate(t)
		if err != nil {
			return jvm.Value{}, false, err
		}
		return jvm.RefOf(h), true, nil
	}
}

func probeByteSlice(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	bs, ok := value.([]byte)
	if !ok || target.Name != "byte[]" {
		return Fail, nil
	}
	return Great, func(env jvm.Env) (jvm.Value, bool, error) {
		h, err := env.NewArray(target.Component, len(bs))
		if err != nil {
			return jvm.Value{}, false, err
		}
		for i, b := range bs {
			if err := env.SetArrayElement(h, i, jvm.ByteOf(int8(b))); err != nil {
				env.DeleteRef(h)
				return jvm.Value{}, false, err
			}
		}
		return jvm.RefOf(h), true, nil
	}
}

// probePrimitiveSlice is the structural fallback for fixed-width slices: a
// host slice whose element width matches a primitive array kind maps onto
// it element by element.
func probePrimitiveSlice(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	if !target.IsArray() || target.Component == nil || !target.Component.IsPrimitive() {
		return Fail, nil
	}
	var (
		length int
		q      Quality
		elem   func(i int) jvm.Value
	)
	switch s := value.(type) {
	case []bool:
		if target.Name != "boolean[]" {
			return Fail, nil
		}
		length, q = len(s), Great
		elem = func(i int) jvm.Value { return jvm.BoolOf(s[i]) }
	case []int16:
		if target.Name != "short[]" {
			return Fail, nil
		}
		length, q = len(s), Great
		elem = func(i int) jvm.Value { return jvm.ShortOf(s[i]) }
	case []int32:
		if target.Name != "int[]" {
			return Fail, nil
		}
		length, q = len(s), Great
		elem = func(i int) jvm.Value { return jvm.IntOf(s[i]) }
	case []int64:
		if target.Name != "long[]" {
			return Fail, nil
		}
		length, q = len(s), Great
		elem = func(i int) jvm.Value { return jvm.LongOf(s[i]) }
	case []int:
		if target.Name != "long[]" {
			return Fail, nil
		}
		length, q = len(s), Good
		elem = func(i int) jvm.Value { return jvm.LongOf(int64(s[i])) }
	case []float32:
		if target.Name != "float[]" {
			return Fail, nil
		}
		length, q = len(s), Great
		elem = func(i int) jvm.Value { return jvm.FloatOf(s[i]) }
	case []float64:
		if target.Name != "double[]" {
			return Fail, nil
		}
		length, q = len(s), Great
		elem = func(i int) jvm.Value { return jvm.DoubleOf(s[i]) }
	default:
		return Fail, nil
	}
	return q, func(env jvm.Env) (jvm.Value, bool, error) {
		h, err := env.NewArray(target.Component, length)
		if err != nil {
			return jvm.Value{}, false, err
		}
		for i := 0; i < length; i++ {
			if err := env.SetArrayElement(h, i, elem(i)); err != nil {
				env.DeleteRef(h)
				return jvm.Value{}, false, err
			}
		}
		return jvm.RefOf(h), true, nil
	}
}
