// Functions callable from expressions (e.g. `round(x)`, `getWorldScale()`).
// Grounded on §4.C's grammar note on parenthesised calls and §8 scenario
// 7's getWorldScale(); the math/string subset is the common core every
// Mapyrus-style scripting language exposes, implemented directly on the
// standard library the way a one-opcode-per-stdlib-call dispatch wraps
// Go stdlib calls one-for-one rather than reimplementing them.
package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/value"
)

func callBuiltinFunction(s *ContextStack, name string, args []value.Value) (value.Value, error) {
	lower := strings.ToLower(name)
	switch lower {
	case "abs":
		return numArg1(args, math.Abs)
	case "ceil":
		return numArg1(args, math.Ceil)
	case "floor":
		return numArg1(args, math.Floor)
	case "round":
		return numArg1(args, math.Round)
	case "sqrt":
		return numArg1(args, math.Sqrt)
	case "sin":
		return numArg1(args, math.Sin)
	case "cos":
		return numArg1(args, math.Cos)
	case "tan":
		return numArg1(args, math.Tan)
	case "asin":
		return numArg1(args, math.Asin)
	case "acos":
		return numArg1(args, math.Acos)
	case "log":
		return numArg1(args, math.Log)
	case "exp":
		return numArg1(args, math.Exp)
	case "atan2":
		if len(args) != 2 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "atan2 requires 2 arguments")
		}
		return value.Number(math.Atan2(args[0].AsNumber(), args[1].AsNumber())), nil
	case "pow":
		if len(args) != 2 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "pow requires 2 arguments")
		}
		return value.Number(math.Pow(args[0].AsNumber(), args[1].AsNumber())), nil
	case "mod":
		if len(args) != 2 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "mod requires 2 arguments")
		}
		return value.Number(mathFmod(args[0].AsNumber(), args[1].AsNumber())), nil
	case "max":
		return numVariadic(args, math.Max, math.Inf(-1))
	case "min":
		return numVariadic(args, math.Min, math.Inf(1))
	case "int":
		return numArg1(args, math.Trunc)
	case "str":
		if len(args) != 1 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "str requires 1 argument")
		}
		return value.String(args[0].AsString()), nil
	case "length":
		if len(args) != 1 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "length requires 1 argument")
		}
		return value.Number(float64(len([]rune(args[0].AsString())))), nil
	case "substr":
		return substrFn(args)
	case "index":
		if len(args) != 2 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "index requires 2 arguments")
		}
		idx := strings.Index(args[0].AsString(), args[1].AsString())
		return value.Number(float64(idx + 1)), nil
	case "lower":
		return strArg1(args, strings.ToLower)
	case "upper":
		return strArg1(args, strings.ToUpper)
	case "trim":
		return strArg1(args, strings.TrimSpace)
	case "replace":
		if len(args) != 3 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "replace requires 3 arguments")
		}
		return value.String(strings.ReplaceAll(args[0].AsString(), args[1].AsString(), args[2].AsString())), nil
	case "rpad":
		if len(args) != 2 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "rpad requires 2 arguments")
		}
		str := args[0].AsString()
		width := int(args[1].AsNumber())
		for len([]rune(str)) < width {
			str += " "
		}
		return value.String(str), nil
	case "match":
		if len(args) != 2 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "match requires 2 arguments")
		}
		re, err := s.regex.Compile(args[1].AsString())
		if err != nil {
			return value.Value{}, mapyruserr.Wrap(mapyruserr.InvalidExpression, err, "invalid regular expression")
		}
		loc := re.FindStringIndex(args[0].AsString())
		if loc == nil {
			return value.Number(0), nil
		}
		return value.Number(float64(loc[0] + 1)), nil
	case "dechex":
		if len(args) != 1 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "dechex requires 1 argument")
		}
		return value.String(strconv.FormatInt(int64(args[0].AsNumber()), 16)), nil
	case "hex2dec":
		if len(args) != 1 {
			return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "hex2dec requires 1 argument")
		}
		n, err := strconv.ParseInt(strings.TrimPrefix(args[0].AsString(), "#"), 16, 64)
		if err != nil {
			return value.Value{}, mapyruserr.Wrap(mapyruserr.InvalidNumber, err, "invalid hex value")
		}
		return value.Number(float64(n)), nil
	case "sprintf":
		return sprintfFn(args)
	case "getworldscale":
		return value.Number(s.Top().WorldScale()), nil
	case "protected":
		return protectedFn(s, args)
	default:
		return value.Value{}, mapyruserr.Newf(mapyruserr.InvalidExpression, "undefined function %q", name)
	}
}

func mathFmod(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return math.Mod(a, b)
}

func numArg1(args []value.Value, f func(float64) float64) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "function requires exactly 1 argument")
	}
	n := f(args[0].AsNumber())
	if err := value.CheckFinite(n); err != nil {
		return value.Value{}, err
	}
	return value.Number(n), nil
}

func numVariadic(args []value.Value, f func(a, b float64) float64, seed float64) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "function requires at least 1 argument")
	}
	acc := seed
	for _, a := range args {
		acc = f(acc, a.AsNumber())
	}
	return value.Number(acc), nil
}

func strArg1(args []value.Value, f func(string) string) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "function requires exactly 1 argument")
	}
	return value.String(f(args[0].AsString())), nil
}

func substrFn(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "substr requires 3 arguments")
	}
	runes := []rune(args[0].AsString())
	start := int(args[1].AsNumber()) - 1
	length := int(args[2].AsNumber())
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := start + length
	if end > len(runes) {
		end = len(runes)
	}
	if end < start {
		end = start
	}
	return value.String(string(runes[start:end])), nil
}

func sprintfFn(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, mapyruserr.New(mapyruserr.WrongParameters, "sprintf requires a format string")
	}
	format := args[0].AsString()
	rest := make([]interface{}, len(args)-1)
	for i, a := range args[1:] {
		if a.Kind() == value.KindNumber {
			rest[i] = a.AsNumber()
		} else {
			rest[i] = a.AsString()
		}
	}
	return value.String(fmt.Sprintf(format, rest...)), nil
}

func protectedFn(s *ContextStack, args []value.Value) (value.Value, error) {
	ctx := s.Top()
	out := ctx.Output()
	if out == nil {
		return value.Number(0), nil
	}
	mask := out.PageMask()
	if mask == nil {
		return value.Number(0), nil
	}
	if mask.IsAllZero(shapeFromPath(ctx)) {
		return value.Number(0), nil
	}
	return value.Number(1), nil
}
