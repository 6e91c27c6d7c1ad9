package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
	calcore "github.com/funvibe/calcore/pkg/embed"
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	Color  bool
}

// CLIResponse is the JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ValueJSON is the JSON form of one calculator value.
type ValueJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
	Repr  string          `json:"repr"`
}

func (o *RootOptions) formatter(w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: w, Color: useColor(o.Color, w)}
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs err in the configured format. Core errors are reported
// with their kind.
func (f *OutputFormatter) Error(err error) error {
	kind := "error"
	if k, ok := diagnostics.KindOf(err); ok {
		kind = k.String()
	}
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Kind: kind, Message: err.Error()},
		})
	}
	_, werr := fmt.Fprintln(f.Writer, f.paint(colorRed, "error: "+err.Error()))
	return werr
}

// fail reports an evaluation error. JSON output carries the error in the
// response; the error is returned either way so the exit code is non-zero.
func (f *OutputFormatter) fail(err error) error {
	if f.Format == "json" {
		if werr := f.Error(err); werr != nil {
			return werr
		}
	}
	return err
}

// Values outputs evaluation results.
func (f *OutputFormatter) Values(c *calcore.Calculator, vals []typesystem.Value) error {
	if f.Format == "json" {
		out := make([]ValueJSON, len(vals))
		for i, v := range vals {
			out[i] = ValueJSON{Type: v.Tag().Name(), Repr: typesystem.Repr(v)}
			// Values without a protobuf form keep only their repr.
			if data, err := c.Marshaller().MarshalJSON(v); err == nil {
				out[i].Value = json.RawMessage(data)
			}
		}
		return f.Success(out)
	}
	for _, v := range vals {
		if _, err := fmt.Fprintln(f.Writer, f.renderValue(v)); err != nil {
			return err
		}
	}
	return nil
}

func (f *OutputFormatter) renderValue(v typesystem.Value) string {
	return f.paint(colorBlue, typesystem.Repr(v)) + " " + f.paint(colorGreen, ": "+v.Tag().Name())
}

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorReset = "\033[0m"
)

func (f *OutputFormatter) paint(color, s string) string {
	if !f.Color {
		return s
	}
	return color + s + colorReset
}

// useColor resolves the --color flag. auto colors only terminals and
// honors NO_COLOR and TERM=dumb.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
