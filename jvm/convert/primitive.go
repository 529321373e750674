package convert

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/dhamidi/jbridge/jvm"
)

// Limits of the Java primitive types.
const (
	JByteMin  = -0x80
	JByteMax  = 0x7F
	JShortMin = -0x8000
	JShortMax = 0x7FFF
	JIntMin   = -0x80000000
	JIntMax   = 0x7FFFFFFF
	JCharMax  = 0xFFFF
	JFloatMax = 3.40282347e+38
)

// OverflowError reports a numeric host value that does not fit the target
// width. Out-of-range values are never silently truncated.
type OverflowError struct {
	Value  any
	Target string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("value %v overflows %s", e.Value, e.Target)
}

func overflowConversion(value any, target string) Conversion {
	return func(jvm.Env) (jvm.Value, bool, error) {
		return jvm.Value{}, false, &OverflowError{Value: value, Target: target}
	}
}

func immediate(v jvm.Value) Conversion {
	return func(jvm.Env) (jvm.Value, bool, error) {
		return v, false, nil
	}
}

// hostInt extracts an integral host value. over is set when a uint64 exceeds
// the long range.
func hostInt(value any) (n int64, over bool, ok bool) {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(value).Int(), false, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := reflect.ValueOf(value).Uint()
		if u > math.MaxInt64 {
			return 0, true, true
		}
		return int64(u), false, true
	}
	return 0, false, false
}

func hostFloat(value any) (f float64, wide bool, ok bool) {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Float32:
		return reflect.ValueOf(value).Float(), false, true
	case reflect.Float64:
		return reflect.ValueOf(value).Float(), true, true
	}
	return 0, false, false
}

// hostIntWidth is the natural bit width of the host integral, used to rank
// exact-width matches above widening ones.
func hostIntWidth(value any) int {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int8, reflect.Uint8:
		return 8
	case reflect.Int16, reflect.Uint16:
		return 16
	case reflect.Int32, reflect.Uint32:
		return 32
	default:
		return 64
	}
}

// primitiveConversion is the fixed dispatch for primitive targets. Width
// violations where a widening would otherwise be meaningful degrade to Bad
// with a conversion that raises OverflowError; semantically impossible
// pairings are Fail.
func primitiveConversion(value any, target *jvm.TypeDescriptor) (Quality, Conversion) {
	switch target.Name {
	case "boolean":
		if b, ok := value.(bool); ok {
			return Perfect, immediate(jvm.BoolOf(b))
		}
		return Fail, nil

	case "byte":
		return integralConversion(value, target.Name, JByteMin, JByteMax, 8,
			func(n int64) jvm.Value { return jvm.ByteOf(int8(n)) })
	case "short":
		return integralConversion(value, target.Name, JShortMin, JShortMax, 16,
			func(n int64) jvm.Value { return jvm.ShortOf(int16(n)) })
	case "int":
		return integralConversion(value, target.Name, JIntMin, JIntMax, 32,
			func(n int64) jvm.Value { return jvm.IntOf(int32(n)) })
	case "long":
		return integralConversion(value, target.Name, math.MinInt64, math.MaxInt64, 64,
			func(n int64) jvm.Value { return jvm.LongOf(n) })

	case "char":
		return charConversion(value)

	case "float":
		if f, wide, ok := hostFloat(value); ok {
			if wide {
				if math.Abs(f) > JFloatMax && !math.IsInf(f, 0) {
					return Bad, overflowConversion(value, target.Name)
				}
				return Great, immediate(jvm.FloatOf(float32(f)))
			}
			return Perfect, immediate(jvm.FloatOf(float32(f)))
		}
		if n, over, ok := hostInt(value); ok {
			if over {
				return Bad, overflowConversion(value, target.Name)
			}
			return Good, immediate(jvm.FloatOf(float32(n)))
		}
		return Fail, nil

	case "double":
		if f, wide, ok := hostFloat(value); ok {
			if wide {
				return Perfect, immediate(jvm.DoubleOf(f))
			}
			return Great, immediate(jvm.DoubleOf(f))
		}
		if n, over, ok := hostInt(value); ok {
			if over {
				return Bad, overflowConversion(value, target.Name)
			}
			return Good, immediate(jvm.DoubleOf(float64(n)))
		}
		return Fail, nil
	}
	return Fail, nil
}

func integralConversion(value any, targetName string, min, max int64, width int, mk func(int64) jvm.Value) (Quality, Conversion) {
	n, over, ok := hostInt(value)
	if !ok {
		return Fail, nil
	}
	if over || n < min || n > max {
		return Bad, overflowConversion(value, targetName)
	}
	switch {
	case hostIntWidth(value) == width:
		return Perfect, immediate(mk(n))
	case hostIntWidth(value) < width:
		return Great, immediate(mk(n)) // widening
	default:
		return Good, immediate(mk(n)) // in-range narrowing
	}
}

func charConversion(value any) (Quality, Conversion) {
	if s, ok := value.(string); ok {
		// a multi-rune string is not a character, full stop
		if utf8.RuneCountInString(s) != 1 {
			return Fail, nil
		}
		r, _ := utf8.DecodeRuneInString(s)
		if r > JCharMax {
			return Bad, overflowConversion(value, "char")
		}
		return Great, immediate(jvm.CharOf(r))
	}
	if n, over, ok := hostInt(value); ok {
		if over || n < 0 || n > JCharMax {
			return Bad, overflowConversion(value, "char")
		}
		return Good, immediate(jvm.CharOf(rune(n)))
	}
	return Fail, nil
}
