// Package record defines the content records supplied by the host content
// system. Records are read-only for the duration of a document build.
package record

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Record is one content item at a point in time.
type Record struct {
	ID           uuid.UUID `yaml:"id" json:"id" mapstructure:"id"`
	Path         string    `yaml:"path" json:"path" mapstructure:"path"`
	Name         string    `yaml:"name" json:"name" mapstructure:"name"`
	Language     string    `yaml:"language" json:"language" mapstructure:"language"`
	Version      int       `yaml:"version" json:"version" mapstructure:"version"`
	Database     string    `yaml:"database" json:"database" mapstructure:"database"`
	TemplateID   string    `yaml:"templateId" json:"templateId" mapstructure:"templateId"`
	TemplateName string    `yaml:"templateName" json:"templateName" mapstructure:"templateName"`
	DisplayName  string    `yaml:"displayName" json:"displayName" mapstructure:"displayName"`

	// Fields are kept in source order.
	Fields []Field `yaml:"fields" json:"fields" mapstructure:"fields"`

	// Ancestors are ordered nearest-first.
	Ancestors []Ancestor `yaml:"ancestors" json:"ancestors" mapstructure:"ancestors"`

	// Variants are other language or version snapshots of the same item.
	Variants []*Record `yaml:"variants" json:"variants" mapstructure:"variants"`
}

// Field is a (name, declared type, raw value) triple.
type Field struct {
	Name  string `yaml:"name" json:"name" mapstructure:"name"`
	Type  string `yaml:"type" json:"type" mapstructure:"type"`
	Value string `yaml:"value" json:"value" mapstructure:"value"`
}

// Ancestor is a reference to an item above a record in the content tree.
type Ancestor struct {
	ID         uuid.UUID `yaml:"id" json:"id" mapstructure:"id"`
	Name       string    `yaml:"name" json:"name" mapstructure:"name"`
	Path       string    `yaml:"path" json:"path" mapstructure:"path"`
	TemplateID string    `yaml:"templateId" json:"templateId" mapstructure:"templateId"`
}

// Field returns the first field whose name matches name case-insensitively.
func (r *Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

// AncestorLookup resolves the ancestor chain of a record, nearest-first.
type AncestorLookup interface {
	Ancestors(ctx context.Context, rec *Record) ([]Ancestor, error)
}

// AncestorLookupFunc adapts a function to AncestorLookup.
type AncestorLookupFunc func(ctx context.Context, rec *Record) ([]Ancestor, error)

// Ancestors calls f.
func (f AncestorLookupFunc) Ancestors(ctx context.Context, rec *Record) ([]Ancestor, error) {
	return f(ctx, rec)
}

// EmbeddedAncestors returns the ancestors carried on the record itself.
var EmbeddedAncestors AncestorLookup = AncestorLookupFunc(
	func(_ context.Context, rec *Record) ([]Ancestor, error) {
		return rec.Ancestors, nil
	},
)
