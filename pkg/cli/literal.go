package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/calcore/internal/typesystem"
	calcore "github.com/funvibe/calcore/pkg/embed"
)

// parseLiteral turns one command-line operand into a value. A type prefix
// forces the type; bare literals are inferred.
//
//	"int:2"         → Int 2
//	"float:2"       → Float 2
//	"str:12"        → Str "12"
//	"bool:true"     → Bool true
//	"json:[1,"a"]"  → List [1, "a"]
//	"fn:abs"        → Func abs
//	"nil"           → Nil
//	"true"          → Bool true
//	"12"            → Int 12
//	"1.5"           → Float 1.5
//	"\"12\""        → Str "12"
//	"abc"           → Str "abc"
func parseLiteral(c *calcore.Calculator, s string) (typesystem.Value, error) {
	core := c.Core()
	if prefix, rest, ok := strings.Cut(s, ":"); ok {
		switch prefix {
		case "int":
			n, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return typesystem.Value{}, fmt.Errorf("invalid int literal %q", rest)
			}
			return core.Int(n), nil
		case "float":
			f, err := strconv.ParseFloat(rest, 64)
			if err != nil {
				return typesystem.Value{}, fmt.Errorf("invalid float literal %q", rest)
			}
			return core.Float(f), nil
		case "str":
			return core.Str(rest), nil
		case "bool":
			b, err := strconv.ParseBool(rest)
			if err != nil {
				return typesystem.Value{}, fmt.Errorf("invalid bool literal %q", rest)
			}
			return core.Bool(b), nil
		case "json":
			return c.Marshaller().UnmarshalJSON([]byte(rest))
		case "fn":
			v, ok := core.FuncNamed(rest)
			if !ok {
				return typesystem.Value{}, fmt.Errorf("unknown function %q", rest)
			}
			return v, nil
		}
	}

	switch s {
	case "nil":
		return core.Nil(), nil
	case "true", "false":
		return core.Bool(s == "true"), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return core.Int(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return core.Float(f), nil
	}
	if len(s) >= 2 && s[0] == '"' {
		if unq, err := strconv.Unquote(s); err == nil {
			return core.Str(unq), nil
		}
	}
	return core.Str(s), nil
}

func parseLiterals(c *calcore.Calculator, args []string) ([]typesystem.Value, error) {
	vals := make([]typesystem.Value, len(args))
	for i, a := range args {
		v, err := parseLiteral(c, a)
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// splitLine splits a REPL line on whitespace, keeping double-quoted
// operands (with their quotes) together.
func splitLine(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote, escaped := false, false
	for _, r := range line {
		switch {
		case escaped:
			escaped = false
			cur.WriteRune(r)
		case inQuote && r == '\\':
			escaped = true
			cur.WriteRune(r)
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t'):
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated string in %q", line)
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
