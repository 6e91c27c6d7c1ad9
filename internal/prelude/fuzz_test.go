package prelude

import (
	"testing"

	"github.com/funvibe/calcore/internal/config"
	"github.com/funvibe/calcore/internal/typesystem"
)

// FuzzOperators applies every operator to every pairing of fuzzed scalars.
// Failures must surface as errors, never as panics or untagged results.
func FuzzOperators(f *testing.F) {
	f.Add(int64(7), int64(2), 1.5, "ab")
	f.Add(int64(0), int64(0), 0.0, "")
	f.Add(int64(-1<<63), int64(-1), -0.0, "é")
	f.Add(int64(3), int64(-2), 1e308, "x y")

	c, err := Standard(config.Default())
	if err != nil {
		f.Fatalf("prelude: %v", err)
	}
	binary := []string{
		config.OpAdd, config.OpSub, config.OpMul, config.OpDiv, config.OpMod, config.OpPow,
		config.OpEq, config.OpNe, config.OpLt, config.OpLe, config.OpGt, config.OpGe,
	}
	unary := []string{config.OpNeg, config.OpNot, config.OpLen}

	f.Fuzz(func(t *testing.T, a, b int64, x float64, s string) {
		// Keep repeat counts small so Str * Int stays cheap.
		b = int64(int16(b))
		operands := []typesystem.Value{
			c.Int(a), c.Int(b), c.Float(x), c.Str(s), c.Bool(a%2 == 0), c.Nil(),
			c.List(c.Int(a), c.Str(s)),
		}
		for _, op := range binary {
			for _, l := range operands {
				for _, r := range operands {
					v, err := c.Eval(op, l, r)
					if err == nil && v.Tag() == nil {
						t.Fatalf("%s %s %s returned an untagged value", l, op, r)
					}
				}
			}
		}
		for _, op := range unary {
			for _, v := range operands {
				res, err := c.Eval(op, v)
				if err == nil && res.Tag() == nil {
					t.Fatalf("%s %s returned an untagged value", op, v)
				}
			}
		}
	})
}
