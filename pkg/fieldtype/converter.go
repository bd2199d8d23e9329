// Package fieldtype maps declared source field types to JSON value kinds and
// converts raw field values into those kinds.
package fieldtype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the target value classification for a field.
type Kind int

const (
	// String values are trimmed of surrounding whitespace.
	String Kind = iota
	// Integer values are parsed as base-10 int64.
	Integer
	// Float values are parsed as float64.
	Float
	// Raw values are passed through unchanged.
	Raw
	// Number is a configuration-level kind. It resolves to Integer for
	// registered numeric readers and to Float otherwise.
	Number
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Raw:
		return "raw"
	case Number:
		return "number"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a configured kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text":
		return String, nil
	case "integer", "int":
		return Integer, nil
	case "float", "double":
		return Float, nil
	case "raw":
		return Raw, nil
	case "number", "numeric":
		return Number, nil
	}
	return String, fmt.Errorf("unknown field kind %q", s)
}

// ErrConversion is wrapped by every ConversionError.
var ErrConversion = errors.New("field value conversion failed")

// ConversionError reports a raw value that could not be parsed as its kind.
type ConversionError struct {
	TypeName string
	Kind     Kind
	Value    string
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q (type %q) to %s: %v", e.Value, e.TypeName, e.Kind, e.Err)
}

func (e *ConversionError) Unwrap() []error {
	return []error{ErrConversion, e.Err}
}

// Map is the configured field type map.
type Map struct {
	// Types maps declared type names to kinds. Names are case-insensitive.
	Types map[string]Kind

	// NumericReaders lists declared type names read as integers.
	NumericReaders []string
}

// Converter resolves and converts field values. It is safe for concurrent
// use once constructed.
type Converter struct {
	types    map[string]Kind
	integers map[string]struct{}
}

// NewConverter compiles m into a Converter.
func NewConverter(m Map) *Converter {
	c := &Converter{
		types:    make(map[string]Kind, len(m.Types)),
		integers: make(map[string]struct{}, len(m.NumericReaders)),
	}
	for name, kind := range m.Types {
		c.types[normalize(name)] = kind
	}
	for _, name := range m.NumericReaders {
		c.integers[normalize(name)] = struct{}{}
	}
	return c
}

// Resolve returns the kind for a declared type name. Unknown names resolve to
// String.
func (c *Converter) Resolve(typeName string) Kind {
	kind, _ := c.resolve(typeName)
	return kind
}

// resolve also reports whether the kind came from a Number entry.
func (c *Converter) resolve(typeName string) (Kind, bool) {
	name := normalize(typeName)
	kind, ok := c.types[name]
	if !ok {
		return String, false
	}
	if kind == Number {
		if _, isInt := c.integers[name]; isInt {
			return Integer, true
		}
		return Float, true
	}
	return kind, false
}

// Convert converts raw to kind.
func (c *Converter) Convert(raw string, kind Kind) (any, error) {
	switch kind {
	case String:
		return strings.TrimSpace(raw), nil
	case Integer:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, err
		}
		return v, nil
	case Float, Number:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, err
		}
		return v, nil
	case Raw:
		return raw, nil
	}
	return nil, fmt.Errorf("unsupported kind %s", kind)
}

// ConvertField resolves typeName and converts raw. A Number field read as an
// integer whose value carries a fractional part is stored as a Float.
func (c *Converter) ConvertField(typeName, raw string) (any, Kind, error) {
	kind, number := c.resolve(typeName)
	v, err := c.Convert(raw, kind)
	if err != nil && number && kind == Integer {
		if f, ferr := c.Convert(raw, Float); ferr == nil {
			return f, Float, nil
		}
	}
	if err != nil {
		return nil, kind, &ConversionError{
			TypeName: typeName,
			Kind:     kind,
			Value:    raw,
			Err:      err,
		}
	}
	return v, kind, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
