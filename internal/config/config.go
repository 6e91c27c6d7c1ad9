// Package config holds the built-in names of the calculator and the
// calcore.yaml assembly configuration.
//
// calcore.yaml selects which prelude groups are installed, adds coercion
// rules between prelude types, picks the Unicode normalization form used for
// string comparison, and configures logging. Every field is optional.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level calcore.yaml configuration.
type Config struct {
	// Name labels the assembled domain in diagnostics. Defaults to "calcore".
	Name string `yaml:"name,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`

	// Groups lists the prelude groups to install. Defaults to all of them.
	Groups []string `yaml:"groups,omitempty"`

	// Coercions adds rules on top of the prelude's built-in ones.
	Coercions []CoercionSpec `yaml:"coercions,omitempty"`

	// Normalization is the Unicode form strings are compared in:
	// NFC, NFD, NFKC, NFKD or none. Defaults to NFC.
	Normalization string `yaml:"normalization,omitempty"`

	// Locale is the BCP 47 tag used by the format function when no locale
	// argument is passed. Defaults to "en".
	Locale string `yaml:"locale,omitempty"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level,omitempty"`
	// Format is text or json. Defaults to text.
	Format string `yaml:"format,omitempty"`
}

// CoercionSpec declares the rule for one pair of prelude types.
//
//	coercions:
//	  - a: Str
//	    b: Int
//	    winner: a
//	    symmetric: true
type CoercionSpec struct {
	A string `yaml:"a"`
	B string `yaml:"b"`

	// Winner is "a", "b" or "none". "none" registers an explicitly invalid
	// pair.
	Winner string `yaml:"winner"`

	// Symmetric also registers (B, A) with the inverse rule.
	Symmetric bool `yaml:"symmetric,omitempty"`
}

var (
	logLevels      = []string{"debug", "info", "warn", "error"}
	logFormats     = []string{"text", "json"}
	normalForms    = []string{"NFC", "NFD", "NFKC", "NFKD", "none"}
	coercionWinner = []string{"a", "b", "none"}
)

// Default returns the configuration used when no calcore.yaml is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a calcore.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses calcore.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for calcore.yaml starting from dir and walking up to
// parent directories. It returns an empty path and a nil error when no file
// is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Resolve loads path when it is set, otherwise the nearest calcore.yaml above
// dir, otherwise Default.
func Resolve(path, dir string) (*Config, error) {
	if path != "" {
		return LoadConfig(path)
	}
	found, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}
	if found == "" {
		return Default(), nil
	}
	return LoadConfig(found)
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.Log.Level != "" && !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("%s: log.level %q must be one of %s", path, c.Log.Level, strings.Join(logLevels, ", "))
	}
	if c.Log.Format != "" && !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("%s: log.format %q must be one of %s", path, c.Log.Format, strings.Join(logFormats, ", "))
	}

	seenGroups := make(map[string]bool)
	for i, g := range c.Groups {
		if !slices.Contains(PreludeGroups, g) {
			return fmt.Errorf("%s: groups[%d]: unknown prelude group %q", path, i, g)
		}
		if seenGroups[g] {
			return fmt.Errorf("%s: groups[%d]: group %q listed twice", path, i, g)
		}
		seenGroups[g] = true
	}

	if c.Normalization != "" && !slices.Contains(normalForms, strings.ToUpper(c.Normalization)) &&
		!strings.EqualFold(c.Normalization, "none") {
		return fmt.Errorf("%s: normalization %q must be one of %s", path, c.Normalization, strings.Join(normalForms, ", "))
	}

	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			return fmt.Errorf("%s: locale %q: %w", path, c.Locale, err)
		}
	}

	seenPairs := make(map[[2]string]int)
	for i, co := range c.Coercions {
		if co.A == "" || co.B == "" {
			return fmt.Errorf("%s: coercions[%d]: a and b are required", path, i)
		}
		for _, name := range []string{co.A, co.B} {
			if !slices.Contains(BuiltinTypeNames, name) {
				return fmt.Errorf("%s: coercions[%d]: unknown type %q", path, i, name)
			}
		}
		if co.A == co.B {
			return fmt.Errorf("%s: coercions[%d]: a and b must differ", path, i)
		}
		if !slices.Contains(coercionWinner, strings.ToLower(co.Winner)) {
			return fmt.Errorf("%s: coercions[%d] (%s, %s): winner %q must be one of %s",
				path, i, co.A, co.B, co.Winner, strings.Join(coercionWinner, ", "))
		}
		key := [2]string{co.A, co.B}
		if prev, ok := seenPairs[key]; ok {
			return fmt.Errorf("%s: coercions[%d]: pair (%s, %s) already declared in coercions[%d]",
				path, i, co.A, co.B, prev)
		}
		seenPairs[key] = i
	}

	return nil
}

// setDefaults fills in default values for omitted fields and canonicalizes
// case-insensitive ones.
func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "calcore"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if len(c.Groups) == 0 {
		c.Groups = append([]string(nil), PreludeGroups...)
	}
	if c.Normalization == "" {
		c.Normalization = "NFC"
	}
	if strings.EqualFold(c.Normalization, "none") {
		c.Normalization = "none"
	} else {
		c.Normalization = strings.ToUpper(c.Normalization)
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
	for i := range c.Coercions {
		c.Coercions[i].Winner = strings.ToLower(c.Coercions[i].Winner)
	}
}

// HasGroup reports whether the prelude group g is enabled.
func (c *Config) HasGroup(g string) bool {
	return slices.Contains(c.Groups, g)
}
