package lang

import (
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a [Value].
type Kind int

const (
	// KindUndefined is the zero value; it renders as the empty string.
	KindUndefined Kind = iota

	// KindString holds text.
	KindString

	// KindInteger holds a signed 64-bit integer.
	KindInteger

	// KindFloat holds a 64-bit floating point number.
	KindFloat

	// KindBoolean holds a truth value.
	KindBoolean

	// KindMapping holds string-keyed values.
	KindMapping

	// KindSequence holds ordered values.
	KindSequence
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "Undefined"

	case KindString:
		return "String"

	case KindInteger:
		return "Integer"

	case KindFloat:
		return "Float"

	case KindBoolean:
		return "Boolean"

	case KindMapping:
		return "Mapping"

	case KindSequence:
		return "Sequence"

	default:
		return "Unknown"
	}
}

// Value is the runtime datum carried through evaluation.
//
// Exactly one payload field is meaningful, selected by the kind. The zero
// Value is [Undefined].
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	bln  bool
	m    map[string]Value
	seq  []Value
}

// Undefined is the value of every name that is not present in a [Context].
var Undefined = Value{}

// Str returns a string value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInteger, num: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, bln: b} }

// Map returns a mapping value. The map is not copied.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}

	return Value{kind: KindMapping, m: m}
}

// Seq returns a sequence value.
func Seq(items ...Value) Value { return Value{kind: KindSequence, seq: items} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined reports whether v is [Undefined].
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// AsString returns the payload of a string value.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInt returns the payload of an integer value.
func (v Value) AsInt() (int64, bool) { return v.num, v.kind == KindInteger }

// AsFloat returns the numeric payload of an integer or float value as a
// float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.num), true

	case KindFloat:
		return v.flt, true

	default:
		return 0, false
	}
}

// AsBool returns the payload of a boolean value.
func (v Value) AsBool() (bool, bool) { return v.bln, v.kind == KindBoolean }

// AsMap returns the payload of a mapping value.
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMapping }

// AsSeq returns the payload of a sequence value.
func (v Value) AsSeq() ([]Value, bool) { return v.seq, v.kind == KindSequence }

// IsNumber reports whether v is an integer or a float.
func (v Value) IsNumber() bool {
	return v.kind == KindInteger || v.kind == KindFloat
}

// Truthy reports whether v counts as true in a condition.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""

	case KindInteger:
		return v.num != 0

	case KindFloat:
		return v.flt != 0 && !math.IsNaN(v.flt)

	case KindBoolean:
		return v.bln

	case KindMapping:
		return len(v.m) > 0

	case KindSequence:
		return len(v.seq) > 0

	default:
		return false
	}
}

// Len returns the number of characters, entries, or items in v.
// Scalars other than strings have length 0.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.str))

	case KindMapping:
		return len(v.m)

	case KindSequence:
		return len(v.seq)

	default:
		return 0
	}
}

// Lookup returns the member of v named key: a mapping entry, or the item
// of a sequence or character of a string at a decimal index. Any miss
// yields [Undefined].
func (v Value) Lookup(key string) Value {
	switch v.kind {
	case KindMapping:
		return v.m[key]

	case KindSequence:
		i, err := strconv.Atoi(key)
		if err != nil {
			return Undefined
		}

		if i < 0 {
			i += len(v.seq)
		}

		if i < 0 || i >= len(v.seq) {
			return Undefined
		}

		return v.seq[i]

	case KindString:
		i, err := strconv.Atoi(key)
		if err != nil {
			return Undefined
		}

		r := []rune(v.str)
		if i < 0 {
			i += len(r)
		}

		if i < 0 || i >= len(r) {
			return Undefined
		}

		return Str(string(r[i]))

	default:
		return Undefined
	}
}

// Items returns the values iterated by a for loop: the items of a
// sequence, the sorted keys of a mapping, or the characters of a string.
func (v Value) Items() []Value {
	switch v.kind {
	case KindSequence:
		return v.seq

	case KindMapping:
		keys := slices.Sorted(maps.Keys(v.m))
		items := make([]Value, len(keys))

		for i, k := range keys {
			items[i] = Str(k)
		}

		return items

	case KindString:
		r := []rune(v.str)
		items := make([]Value, len(r))

		for i, c := range r {
			items[i] = Str(string(c))
		}

		return items

	default:
		return nil
	}
}

// Equal reports whether v and o hold equal data. Integers and floats
// compare numerically.
func (v Value) Equal(o Value) bool {
	if v.IsNumber() && o.IsNumber() {
		if v.kind == KindInteger && o.kind == KindInteger {
			return v.num == o.num
		}

		a, _ := v.AsFloat()
		b, _ := o.AsFloat()

		return a == b
	}

	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindUndefined:
		return true

	case KindString:
		return v.str == o.str

	case KindBoolean:
		return v.bln == o.bln

	case KindMapping:
		return maps.EqualFunc(v.m, o.m, Value.Equal)

	case KindSequence:
		return slices.EqualFunc(v.seq, o.seq, Value.Equal)

	default:
		return false
	}
}

// Compare orders two values. Numbers compare numerically and strings
// lexically; ok is false for any other pair.
func (v Value) Compare(o Value) (cmp int, ok bool) {
	if v.IsNumber() && o.IsNumber() {
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()

		switch {
		case a < b:
			return -1, true

		case a > b:
			return 1, true

		default:
			return 0, true
		}
	}

	if v.kind == KindString && o.kind == KindString {
		return strings.Compare(v.str, o.str), true
	}

	return 0, false
}

// Contains reports whether item is a member of v: an item of a sequence,
// a key of a mapping, or a substring of a string.
func (v Value) Contains(item Value) bool {
	switch v.kind {
	case KindSequence:
		return slices.ContainsFunc(v.seq, item.Equal)

	case KindMapping:
		_, ok := v.m[item.String()]

		return ok

	case KindString:
		return strings.Contains(v.str, item.String())

	default:
		return false
	}
}

// Native converts v to plain Go data: string, int64, float64, bool,
// map[string]any, []any, or nil.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str

	case KindInteger:
		return v.num

	case KindFloat:
		return v.flt

	case KindBoolean:
		return v.bln

	case KindMapping:
		m := make(map[string]any, len(v.m))
		for k, e := range v.m {
			m[k] = e.Native()
		}

		return m

	case KindSequence:
		s := make([]any, len(v.seq))
		for i, e := range v.seq {
			s[i] = e.Native()
		}

		return s

	default:
		return nil
	}
}

// FromNative converts decoded Go data into a [Value]. Maps with string
// (or stringable) keys become mappings, slices and arrays become sequences,
// all integer and float widths become integers and floats. Values that have
// no counterpart are rendered with their default text.
func FromNative(x any) Value {
	switch t := x.(type) {
	case nil:
		return Undefined

	case Value:
		return t

	case string:
		return Str(t)

	case bool:
		return Bool(t)

	case int:
		return Int(int64(t))

	case int64:
		return Int(t)

	case uint64:
		if t > math.MaxInt64 {
			return Float(float64(t))
		}

		return Int(int64(t))

	case float64:
		return Float(t)

	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromNative(e)
		}

		return Map(m)

	case []any:
		s := make([]Value, len(t))
		for i, e := range t {
			s[i] = FromNative(e)
		}

		return Seq(s...)
	}

	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Undefined
		}

		return fromReflect(rv.Elem())

	case reflect.String:
		return Str(rv.String())

	case reflect.Bool:
		return Bool(rv.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FromNative(rv.Uint())

	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())

	case reflect.Slice, reflect.Array:
		s := make([]Value, rv.Len())
		for i := range s {
			s[i] = fromReflect(rv.Index(i))
		}

		return Seq(s...)

	case reflect.Map:
		m := make(map[string]Value, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			m[FromNative(iter.Key().Interface()).String()] = fromReflect(iter.Value())
		}

		return Map(m)

	case reflect.Invalid:
		return Undefined

	default:
		if rv.CanInterface() {
			if s, ok := rv.Interface().(interface{ String() string }); ok {
				return Str(s.String())
			}
		}

		return Undefined
	}
}
