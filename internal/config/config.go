// Package config implements spec.md §6's configurable constants: a YAML
// settings file (replacing the Python reference's exec()-based settings
// loader — see DESIGN.md's Open Questions resolution) merged with
// %const% directives encountered while parsing grammars, which override
// the file and warn on conflicting redefinition exactly as spec.md §4.1
// describes.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/kelsodrake/dharma/internal/errors"
	"github.com/kelsodrake/dharma/internal/grammar/ast"
)

// WarnFunc reports a non-fatal condition: a constant redefined with a
// different value than it already held (spec.md §7.2).
type WarnFunc func(format string, args ...interface{})

// Constants is the settings-layer mirror of internal/grammar/ast.Constants,
// with the bookkeeping (which names have been explicitly set, by either the
// settings file or a %const% directive) that the grammar-facing type has no
// need for.
type Constants struct {
	VarianceMin, VarianceMax int               `yaml:"-"`
	VariableMin, VariableMax int               `yaml:"-"`
	VarianceTemplate         string            `yaml:"-"`
	MaxRepeatPower           int               `yaml:"-"`
	LeafTrigger              int               `yaml:"-"`
	URITable                 map[string]string `yaml:"-"`

	set map[string]bool
}

// fileShape is the YAML document shape of a settings file: plain
// lower_snake_case keys, the portable redesign spec.md §9 calls for in
// place of the reference's exec()-a-Python-file settings loader.
type fileShape struct {
	VarianceMin      *int              `yaml:"variance_min"`
	VarianceMax      *int              `yaml:"variance_max"`
	VariableMin      *int              `yaml:"variable_min"`
	VariableMax      *int              `yaml:"variable_max"`
	VarianceTemplate *string           `yaml:"variance_template"`
	MaxRepeatPower   *int              `yaml:"max_repeat_power"`
	LeafTrigger      *int              `yaml:"leaf_trigger"`
	URITable         map[string]string `yaml:"uri_table"`
}

// Default returns the engine's built-in defaults, used whenever a setting
// is not named by the settings file or any %const% directive.
func Default() *Constants {
	return &Constants{
		VarianceMin:      1,
		VarianceMax:      1,
		VariableMin:      1,
		VariableMax:      5,
		VarianceTemplate: "%s",
		MaxRepeatPower:   4,
		LeafTrigger:      1000,
		URITable:         map[string]string{},
		set:              map[string]bool{},
	}
}

// Load reads a YAML settings file over the defaults. An empty path returns
// the defaults unchanged, since the settings file is optional (spec.md
// §6's command surface lists it as such).
func Load(path string) (*Constants, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Fatal(errors.Position{File: path}, "config", "unable to read settings file: %v", err)
	}

	var shape fileShape
	if err := yaml.Unmarshal(data, &shape); err != nil {
		return nil, errors.Fatal(errors.Position{File: path}, "config", "malformed settings file: %v", err)
	}

	if shape.VarianceMin != nil {
		c.VarianceMin = *shape.VarianceMin
		c.set["VARIANCE_MIN"] = true
	}
	if shape.VarianceMax != nil {
		c.VarianceMax = *shape.VarianceMax
		c.set["VARIANCE_MAX"] = true
	}
	if shape.VariableMin != nil {
		c.VariableMin = *shape.VariableMin
		c.set["VARIABLE_MIN"] = true
	}
	if shape.VariableMax != nil {
		c.VariableMax = *shape.VariableMax
		c.set["VARIABLE_MAX"] = true
	}
	if shape.VarianceTemplate != nil {
		c.VarianceTemplate = *shape.VarianceTemplate
		c.set["VARIANCE_TEMPLATE"] = true
	}
	if shape.MaxRepeatPower != nil {
		c.MaxRepeatPower = *shape.MaxRepeatPower
		c.set["MAX_REPEAT_POWER"] = true
	}
	if shape.LeafTrigger != nil {
		c.LeafTrigger = *shape.LeafTrigger
		c.set["LEAF_TRIGGER"] = true
	}
	for alias, target := range shape.URITable {
		c.URITable[alias] = target
	}

	return c, nil
}

// ApplyDirective applies one %const% directive (spec.md §4.1) on top of
// whatever the settings file already established. The set of recognized
// names is exactly spec.md §6's table; anything else is fatal (spec.md §9
// Design Notes: "unrecognized names are fatal").
func (c *Constants) ApplyDirective(name, rawValue string, warn WarnFunc) error {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}
	key := strings.ToUpper(name)
	setter, ok := directiveSetters[key]
	if !ok {
		return errors.Fatal(errors.Position{}, "config", "unrecognized constant %q", name)
	}
	return setter(c, key, parseConstValue(rawValue), warn)
}

// parseConstValue implements spec.md §4.1's literal typing rule: a quoted
// string becomes a string constant; otherwise the value is parsed as an
// integer, or as a float if it contains a decimal point.
func parseConstValue(raw string) interface{} {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return raw[1 : len(raw)-1]
	}
	if strings.Contains(raw, ".") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	return raw
}

type setterFunc func(c *Constants, key string, value interface{}, warn WarnFunc) error

var directiveSetters = map[string]setterFunc{
	"VARIANCE_MIN":     intSetter(func(c *Constants) *int { return &c.VarianceMin }),
	"VARIANCE_MAX":     intSetter(func(c *Constants) *int { return &c.VarianceMax }),
	"VARIABLE_MIN":     intSetter(func(c *Constants) *int { return &c.VariableMin }),
	"VARIABLE_MAX":     intSetter(func(c *Constants) *int { return &c.VariableMax }),
	"MAX_REPEAT_POWER": intSetter(func(c *Constants) *int { return &c.MaxRepeatPower }),
	"LEAF_TRIGGER":     intSetter(func(c *Constants) *int { return &c.LeafTrigger }),
	"VARIANCE_TEMPLATE": func(c *Constants, key string, value interface{}, warn WarnFunc) error {
		s, ok := value.(string)
		if !ok {
			return errors.Fatal(errors.Position{}, "config", "constant %s expects a string value", key)
		}
		if c.set[key] && c.VarianceTemplate != s {
			warn("constant %s redefined: %q -> %q", key, c.VarianceTemplate, s)
		}
		c.VarianceTemplate = s
		c.set[key] = true
		return nil
	},
	// URI_TABLE is a map, not a scalar; the reference never sets it via a
	// %const% directive (only via the settings loader), so a %const%
	// attempt to set it is fatal rather than silently ignored.
	"URI_TABLE": func(c *Constants, key string, value interface{}, warn WarnFunc) error {
		return errors.Fatal(errors.Position{}, "config", "constant %s cannot be set from a grammar file, only from the settings file", key)
	},
}

func intSetter(field func(c *Constants) *int) setterFunc {
	return func(c *Constants, key string, value interface{}, warn WarnFunc) error {
		n, ok := value.(int64)
		if !ok {
			return errors.Fatal(errors.Position{}, "config", "constant %s expects an integer value", key)
		}
		f := field(c)
		if c.set[key] && *f != int(n) {
			warn("constant %s redefined: %d -> %d", key, *f, n)
		}
		*f = int(n)
		c.set[key] = true
		return nil
	}
}

// ToAST converts to the narrower Constants type internal/grammar/ast
// consumes, so internal/grammar/ast never depends on the settings loader
// (see DESIGN.md's internal/grammar/ast entry).
func (c *Constants) ToAST() ast.Constants {
	return ast.Constants{
		VarianceMin:      c.VarianceMin,
		VarianceMax:      c.VarianceMax,
		VariableMin:      c.VariableMin,
		VariableMax:      c.VariableMax,
		VarianceTemplate: c.VarianceTemplate,
		MaxRepeatPower:   c.MaxRepeatPower,
		LeafTrigger:      c.LeafTrigger,
		URITable:         c.URITable,
	}
}
