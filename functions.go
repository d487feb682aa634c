package xlcalc

import (
	"math"
	"sort"
	"strings"
)

// argument is one evaluated function argument. A reference argument
// carries every cell it covers, row-major; a scalar argument carries one
// value.
type argument struct {
	values []Value
	ref    bool
}

// function describes one entry of the built-in library. Lazy functions
// receive no pre-evaluated arguments and are handled by the evaluator.
type function struct {
	minArgs int
	maxArgs int // -1 = unbounded
	lazy    bool
	call    func(args []argument) Value
}

// functions is the fixed library. Names are upper case.
var functions = map[string]function{
	"SUM":     {minArgs: 1, maxArgs: -1, call: fnSum},
	"AVERAGE": {minArgs: 1, maxArgs: -1, call: fnAverage},
	"COUNT":   {minArgs: 1, maxArgs: -1, call: fnCount},
	"MIN":     {minArgs: 1, maxArgs: -1, call: fnMin},
	"MAX":     {minArgs: 1, maxArgs: -1, call: fnMax},
	"CONCAT":  {minArgs: 1, maxArgs: -1, call: fnConcat},
	"IF":      {minArgs: 2, maxArgs: 3, lazy: true},
}

// FunctionNames returns the names of the built-in functions, sorted.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f function) acceptsArgs(n int) bool {
	return n >= f.minArgs && (f.maxArgs < 0 || n <= f.maxArgs)
}

// numbers collects the numeric values an aggregate operates on. Empty
// cells and non-numeric text are skipped; booleans count only when passed
// directly. The first error, in argument order, is returned instead.
func numbers(args []argument) ([]float64, Value, bool) {
	var out []float64
	for _, a := range args {
		for _, v := range a.values {
			switch v.Kind {
			case KindError:
				return nil, v, false
			case KindNumber:
				out = append(out, v.Num)
			case KindText:
				if n, ok := parseNumber(v.Str); ok {
					out = append(out, n)
				}
			case KindBool:
				if !a.ref {
					if v.Bool {
						out = append(out, 1)
					} else {
						out = append(out, 0)
					}
				}
			}
		}
	}
	return out, Value{}, true
}

func fnSum(args []argument) Value {
	nums, errVal, ok := numbers(args)
	if !ok {
		return errVal
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return normalizeNumber(total)
}

func fnAverage(args []argument) Value {
	nums, errVal, ok := numbers(args)
	if !ok {
		return errVal
	}
	if len(nums) == 0 {
		return Error(ErrorDiv0)
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return normalizeNumber(total / float64(len(nums)))
}

func fnCount(args []argument) Value {
	// COUNT ignores errors instead of propagating them.
	count := 0
	for _, a := range args {
		for _, v := range a.values {
			switch v.Kind {
			case KindNumber:
				count++
			case KindText:
				if _, ok := parseNumber(v.Str); ok {
					count++
				}
			case KindBool:
				if !a.ref {
					count++
				}
			}
		}
	}
	return Number(float64(count))
}

func fnMin(args []argument) Value {
	return extreme(args, math.Min)
}

func fnMax(args []argument) Value {
	return extreme(args, math.Max)
}

func extreme(args []argument, pick func(a, b float64) float64) Value {
	nums, errVal, ok := numbers(args)
	if !ok {
		return errVal
	}
	if len(nums) == 0 {
		return Number(0)
	}
	result := nums[0]
	for _, n := range nums[1:] {
		result = pick(result, n)
	}
	return Number(result)
}

func fnConcat(args []argument) Value {
	var b strings.Builder
	for _, a := range args {
		for _, v := range a.values {
			if v.IsError() {
				return v
			}
			b.WriteString(v.String())
		}
	}
	return Text(b.String())
}
