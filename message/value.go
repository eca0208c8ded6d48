package message

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Kind identifies the dynamic type carried by a Value.
//
// Kind is the closed set of scalar types the broker accepts for header
// values. Structured values (maps, slices, nested messages) are outside
// this set and must be rejected at the API boundary.
type Kind uint8

const (
	// Null is the zero value of Kind, used for absent/unset headers.
	Null Kind = iota
	String
	Int
	Float
	Bool
	Symbol
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "float"
	case Bool:
		return "boolean"
	case Symbol:
		return "symbolic"
	default:
		return "null"
	}
}

// Value is a tagged union over the scalar header types the broker
// supports. The zero Value is Null.
//
// Values are immutable once constructed; Of and the typed constructors
// are the only way to produce one.
type Value struct {
	kind Kind
	str  string
	num  float64
	flag bool
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null value (including the zero Value).
func (v Value) IsNull() bool { return v.kind == Null }

// NullValue returns the Null value.
func NullValue() Value { return Value{kind: Null} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// SymbolValue wraps a symbolic (atom-like) name.
func SymbolValue(s string) Value { return Value{kind: Symbol, str: s} }

// IntValue wraps an integer.
func IntValue(i int64) Value { return Value{kind: Int, num: float64(i)} }

// FloatValue wraps a floating-point number.
func FloatValue(f float64) Value { return Value{kind: Float, num: f} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, flag: b} }

// StringVal returns the wrapped string, or "" if v is not a String/Symbol.
func (v Value) StringVal() string {
	if v.kind == String || v.kind == Symbol {
		return v.str
	}
	return ""
}

// IntVal returns the wrapped integer, or 0 if v is not an Int.
func (v Value) IntVal() int64 {
	if v.kind == Int {
		return int64(v.num)
	}
	return 0
}

// FloatVal returns the wrapped float, or 0 if v is not a Float.
func (v Value) FloatVal() float64 {
	if v.kind == Float {
		return v.num
	}
	return 0
}

// BoolVal returns the wrapped boolean, or false if v is not a Bool.
func (v Value) BoolVal() bool {
	if v.kind == Bool {
		return v.flag
	}
	return false
}

// Equal reports whether v and other carry the same kind and value.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case String, Symbol:
		return v.str == other.str
	case Int, Float:
		return v.num == other.num
	case Bool:
		return v.flag == other.flag
	default:
		return true // Null == Null
	}
}

// Of wraps a Go value of a supported dynamic type as a Value.
//
// Supported inputs: string, int/int32/int64, float32/float64, bool, and
// Value itself (returned unchanged). Any other type produces a Null
// Value; callers that need strict validation should use ValueOf instead.
func Of[T any](value T) Value {
	v, _ := ValueOf(value)
	return v
}

// ValueOf wraps a Go value as a Value, reporting whether the dynamic
// type was recognized.
func ValueOf(value any) (Value, bool) {
	switch t := value.(type) {
	case Value:
		return t, true
	case nil:
		return NullValue(), true
	case string:
		return StringValue(t), true
	case int:
		return IntValue(int64(t)), true
	case int32:
		return IntValue(int64(t)), true
	case int64:
		return IntValue(t), true
	case float32:
		return FloatValue(float64(t)), true
	case float64:
		return FloatValue(t), true
	case bool:
		return BoolValue(t), true
	default:
		return NullValue(), false
	}
}

// As unwraps a Value as type T, reporting whether the conversion applies.
func As[T any](v Value) (T, bool) {
	var zero T
	switch p := any(&zero).(type) {
	case *string:
		if v.kind == String || v.kind == Symbol {
			*p = v.StringVal()
			return zero, true
		}
	case *int64:
		if v.kind == Int {
			*p = v.IntVal()
			return zero, true
		}
	case *int:
		if v.kind == Int {
			*p = int(v.IntVal())
			return zero, true
		}
	case *float64:
		if v.kind == Float {
			*p = v.FloatVal()
			return zero, true
		}
	case *bool:
		if v.kind == Bool {
			*p = v.BoolVal()
			return zero, true
		}
	}
	return zero, false
}

// ErrUnsupportedValue is returned when a header value cannot be
// represented by Value's scalar kind set.
var ErrUnsupportedValue = fmt.Errorf("message: value type not supported")

// EncodeMsgpack implements msgpack.CustomEncoder so Value travels
// losslessly through both the disk store's index snapshots and the SQL
// store's header blobs.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(4); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(v.kind)); err != nil {
		return err
	}
	if err := enc.EncodeString(v.str); err != nil {
		return err
	}
	if err := enc.EncodeFloat64(v.num); err != nil {
		return err
	}
	return enc.EncodeBool(v.flag)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 4 {
		return fmt.Errorf("message: invalid encoded value (len %d)", n)
	}
	kind, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	str, err := dec.DecodeString()
	if err != nil {
		return err
	}
	num, err := dec.DecodeFloat64()
	if err != nil {
		return err
	}
	flag, err := dec.DecodeBool()
	if err != nil {
		return err
	}
	v.kind, v.str, v.num, v.flag = Kind(kind), str, num, flag
	return nil
}
