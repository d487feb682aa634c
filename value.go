package xlcalc

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the tag of a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindBool
	KindError
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindNumber:
		return "Number"
	case KindText:
		return "Text"
	case KindBool:
		return "Bool"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrorKind enumerates in-band cell errors.
type ErrorKind int

const (
	ErrorDiv0     ErrorKind = iota + 1 // division by zero
	ErrorRef                           // unresolvable sheet, cell or range
	ErrorCircular                      // cell is on or downstream of a cycle
	ErrorParse                         // malformed formula
	ErrorValue                         // operand of the wrong type
)

var errorKindText = map[ErrorKind]string{
	ErrorDiv0:     "#DIV0",
	ErrorRef:      "#REF",
	ErrorCircular: "#CIRCULAR",
	ErrorParse:    "#PARSE",
	ErrorValue:    "#VALUE",
}

func (e ErrorKind) String() string {
	if s, ok := errorKindText[e]; ok {
		return s
	}
	return "#ERROR"
}

// Value is the computed or literal content of a cell.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
	Err  ErrorKind
}

// Empty is the zero Value.
var Empty = Value{}

// Number creates a numeric Value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Text creates a text Value.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// Bool creates a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Error creates an error Value.
func Error(kind ErrorKind) Value { return Value{Kind: KindError, Err: kind} }

// IsError reports whether v carries an error.
func (v Value) IsError() bool { return v.Kind == KindError }

// IsEmpty reports whether v is Empty.
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// String renders v the way a grid displays it.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Num)
	case KindText:
		return v.Str
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindError:
		return v.Err.String()
	default:
		return ""
	}
}

// Equal reports whether two values are identical in kind and payload.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == other.Num
	case KindText:
		return v.Str == other.Str
	case KindBool:
		return v.Bool == other.Bool
	case KindError:
		return v.Err == other.Err
	default:
		return true
	}
}

// FormatNumber prints n without trailing zeros: 42, 136.5, 0.125.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', 15, 64)
}

// parseNumber converts text that looks like a number.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// toNumber coerces a scalar operand for arithmetic. Empty is 0, booleans are
// 0/1, numeric text parses; anything else is #VALUE.
func toNumber(v Value) (float64, Value, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, Value{}, true
	case KindEmpty:
		return 0, Value{}, true
	case KindBool:
		if v.Bool {
			return 1, Value{}, true
		}
		return 0, Value{}, true
	case KindText:
		if n, ok := parseNumber(v.Str); ok {
			return n, Value{}, true
		}
		return 0, Error(ErrorValue), false
	case KindError:
		return 0, v, false
	}
	return 0, Error(ErrorValue), false
}

// toBool coerces a condition operand.
func toBool(v Value) (bool, Value, bool) {
	switch v.Kind {
	case KindBool:
		return v.Bool, Value{}, true
	case KindNumber:
		return v.Num != 0, Value{}, true
	case KindEmpty:
		return false, Value{}, true
	case KindText:
		switch strings.ToUpper(strings.TrimSpace(v.Str)) {
		case "TRUE":
			return true, Value{}, true
		case "FALSE":
			return false, Value{}, true
		}
		if n, ok := parseNumber(v.Str); ok {
			return n != 0, Value{}, true
		}
		return false, Error(ErrorValue), false
	case KindError:
		return false, v, false
	}
	return false, Error(ErrorValue), false
}

// normalizeNumber maps results that cannot be displayed to #VALUE.
func normalizeNumber(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Error(ErrorValue)
	}
	return Number(n)
}
