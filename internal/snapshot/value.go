package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface representing the kinds a snapshot field may hold.
// Only Null, Bool, Int, Float, String, List, Set and Object implement it.
type Value interface {
	snapshotValue() // Sealed - only these types implement it
}

// Null represents an explicit absence of value.
type Null struct{}

func (Null) snapshotValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool represents a boolean field value.
type Bool bool

func (Bool) snapshotValue() {}

// Int represents an integer field value.
type Int int64

func (Int) snapshotValue() {}

// Float represents a floating point field value.
// NaN and infinities are rejected by MarshalCanonical.
type Float float64

func (Float) snapshotValue() {}

// String represents a string field value.
type String string

func (String) snapshotValue() {}

// List is an ordered sequence. Equality is element-wise.
type List []Value

func (List) snapshotValue() {}

// Set is an unordered collection. Equality is by membership, so
// Set{Int(1), Int(2)} equals Set{Int(2), Int(1)}.
type Set []Value

func (Set) snapshotValue() {}

// Object is an id-keyed map. Equality is by key and value.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) snapshotValue() {}

// Pair is a key-value pair for typed Object construction.
type Pair struct {
	Key   string
	Value Value
}

// P is a shorthand for Pair.
// Example: ObjectFromPairs(P("title", String("todo")), P("done", Bool(false)))
func P(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// ObjectFromPairs creates an Object from key-value pairs. Later pairs win.
func ObjectFromPairs(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's default string ordering uses UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// SortKeys sorts keys in place using RFC 8785 ordering.
func SortKeys(keys []string) {
	slices.SortFunc(keys, CompareKeys)
}

// CompareKeys compares strings by UTF-16 code units as required by RFC 8785.
func CompareKeys(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// KindOf returns a short name for the value's kind.
func KindOf(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	case Set:
		return "set"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// FromGo converts a plain Go value (as produced by encoding/json, yaml.v3 or
// CUE decoding) into a Value. Unsupported types are rejected.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value out of int64 range: %d", val)
		}
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value out of int64 range: %d", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		return numberValue(val)
	case []string:
		list := make(List, len(val))
		for i, s := range val {
			list[i] = String(s)
		}
		return list, nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			converted, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = converted
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			converted, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// MustFromGo is like FromGo but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFromGo(v any) Value {
	val, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return val
}

// ToGo converts a Value back into plain Go data (nil, bool, int64, float64,
// string, []any, map[string]any). Sets become slices.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Set:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// ObjectFromGo converts a map into an Object.
func ObjectFromGo(m map[string]any) (Object, error) {
	if m == nil {
		return Object{}, nil
	}
	v, err := FromGo(m)
	if err != nil {
		return nil, err
	}
	return v.(Object), nil
}

// ParseValue decodes JSON into a Value. Integral numbers become Int, all other
// numbers become Float. Sets are not representable in JSON and decode as List.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromGo(raw)
}

// ParseObject decodes a JSON object into an Object.
func ParseObject(data []byte) (Object, error) {
	v, err := ParseValue(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %s", KindOf(v))
	}
	return obj, nil
}

// numberValue converts a json.Number to Int when integral, else Float.
func numberValue(n json.Number) (Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return Float(f), nil
}

// Clone returns a deep copy of v. A container revisited through a cycle is
// shared in the copy rather than duplicated.
func Clone(v Value) Value {
	return cloneValue(v, map[ref]Value{})
}

// CloneObject returns a deep copy of obj.
func CloneObject(obj Object) Object {
	if obj == nil {
		return nil
	}
	return Clone(obj).(Object)
}

func cloneValue(v Value, seen map[ref]Value) Value {
	switch val := v.(type) {
	case List:
		if val == nil {
			return val
		}
		id, tracked := identity(val)
		if c, ok := seen[id]; ok && tracked {
			return c
		}
		out := make(List, len(val))
		if tracked {
			seen[id] = out
		}
		for i, elem := range val {
			out[i] = cloneValue(elem, seen)
		}
		return out
	case Set:
		if val == nil {
			return val
		}
		id, tracked := identity(val)
		if c, ok := seen[id]; ok && tracked {
			return c
		}
		out := make(Set, len(val))
		if tracked {
			seen[id] = out
		}
		for i, elem := range val {
			out[i] = cloneValue(elem, seen)
		}
		return out
	case Object:
		if val == nil {
			return val
		}
		id, _ := identity(val)
		if c, ok := seen[id]; ok {
			return c
		}
		out := make(Object, len(val))
		seen[id] = out
		for k, elem := range val {
			out[k] = cloneValue(elem, seen)
		}
		return out
	default:
		return v
	}
}
