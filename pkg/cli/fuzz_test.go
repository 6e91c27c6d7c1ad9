package cli

import (
	"strings"
	"testing"

	calcore "github.com/funvibe/calcore/pkg/embed"
)

// FuzzSessionLine feeds arbitrary REPL lines through the splitter, the
// literal parser and the evaluator. Bad input must only produce errors.
func FuzzSessionLine(f *testing.F) {
	f.Add(`1 + 2.5`)
	f.Add(`divmod 7 2`)
	f.Add(`upper "a \"b\""`)
	f.Add(`json:[1,{"a":2}] + json:[]`)
	f.Add(`"open`)
	f.Add(`fn:abs`)

	c, err := calcore.New()
	if err != nil {
		f.Fatalf("New: %v", err)
	}
	s, err := newSession(c, &OutputFormatter{Format: "text", Writer: &strings.Builder{}})
	if err != nil {
		f.Fatalf("session: %v", err)
	}

	f.Fuzz(func(t *testing.T, line string) {
		if strings.HasPrefix(strings.TrimSpace(line), ":") {
			return
		}
		fields, err := splitLine(line)
		if err != nil {
			return
		}
		for _, field := range fields {
			if field == "" {
				t.Fatalf("splitLine(%q) produced an empty field", line)
			}
			_, _ = parseLiteral(c, field)
		}
		_, _ = s.eval(line)
	})
}
