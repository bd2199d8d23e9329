package indexconfig

import (
	"fmt"
	"strings"

	"github.com/hashicorp-forge/contentsearch/pkg/fieldtype"
	"github.com/hashicorp-forge/contentsearch/pkg/record"
)

const (
	// DefaultMaxFieldLength is used when max_field_length is unset.
	DefaultMaxFieldLength = 4000

	// ObjectIDModeID keys documents by record ID.
	ObjectIDModeID = "id"
	// ObjectIDModePath keys documents by record path.
	ObjectIDModePath = "path"

	// UpdateModeBatched stages documents until Commit.
	UpdateModeBatched = "batched"
	// UpdateModeImmediate forwards each document as it is built.
	UpdateModeImmediate = "immediate"
)

// ValidStrategies are the maintenance strategy names an index may declare.
var ValidStrategies = []string{"synchronous", "manual", "interval", "on_publish"}

// Index is one index definition as written in HCL.
type Index struct {
	Name          string            `hcl:"name,label"`
	Site          string            `hcl:"site,optional"`
	UpdateMode    string            `hcl:"update_mode,optional"`
	PropertyStore *PropertyStoreRef `hcl:"property_store,block"`
	Strategies    []string          `hcl:"strategies,optional"`
	Crawlers      []Crawler         `hcl:"crawler,block"`

	MaxFieldLength           int      `hcl:"max_field_length,optional"`
	TruncateWithinLimit      bool     `hcl:"truncate_within_limit,optional"`
	IncludeTemplateID        bool     `hcl:"include_template_id,optional"`
	IncludedTemplates        []string `hcl:"included_templates,optional"`
	ExcludedTemplates        []string `hcl:"excluded_templates,optional"`
	IndexAllFields           *bool    `hcl:"index_all_fields,optional"`
	IncludedFields           []string `hcl:"included_fields,optional"`
	ExcludedFields           []string `hcl:"excluded_fields,optional"`
	AllowReservedOverwrite   bool     `hcl:"allow_reserved_overwrite,optional"`
	ObjectIDMode             string   `hcl:"object_id_mode,optional"`
	IncludeVersionInObjectID bool     `hcl:"include_version_in_object_id,optional"`
	IndexVariants            bool     `hcl:"index_variants,optional"`

	FieldTypes     []FieldType     `hcl:"field_type,block"`
	NumericReaders []string        `hcl:"numeric_readers,optional"`
	ComputedFields []ComputedField `hcl:"computed_field,block"`
	Tags           []TagRule       `hcl:"tag,block"`
}

// PropertyStoreRef names where index properties are persisted.
type PropertyStoreRef struct {
	Key      string `hcl:"key,optional"`
	Database string `hcl:"database"`
}

// Crawler scopes an index to a subtree of one source database.
type Crawler struct {
	Database                 string `hcl:"database"`
	Root                     string `hcl:"root"`
	ShowInSearchResultsField string `hcl:"show_in_search_results_field,optional"`
}

// FieldType maps a declared type name to a kind name.
type FieldType struct {
	Name string `hcl:"name"`
	Kind string `hcl:"kind"`
}

// ComputedField registers a computed field under Name using the registered
// function Type.
type ComputedField struct {
	Name   string            `hcl:"name,label"`
	Type   string            `hcl:"type"`
	Params map[string]string `hcl:"params,optional"`
}

// TagRule moves the value under Source into _tags with an optional prefix.
type TagRule struct {
	Source string `hcl:"source"`
	Prefix string `hcl:"prefix,optional"`
}

// ApplyDefaults fills unset values.
func (i *Index) ApplyDefaults() {
	if i.MaxFieldLength == 0 {
		i.MaxFieldLength = DefaultMaxFieldLength
	}
	if i.ObjectIDMode == "" {
		i.ObjectIDMode = ObjectIDModeID
	}
	if i.UpdateMode == "" {
		i.UpdateMode = UpdateModeBatched
	}
	if len(i.Strategies) == 0 {
		i.Strategies = []string{"synchronous"}
	}
	if i.IndexAllFields == nil {
		all := true
		i.IndexAllFields = &all
	}
	if i.PropertyStore != nil && i.PropertyStore.Key == "" {
		i.PropertyStore.Key = i.Name
	}
}

// DocumentOptions converts the index definition into builder options.
func (i *Index) DocumentOptions() (DocumentOptions, error) {
	opts := DocumentOptions{
		MaxFieldLength:           i.MaxFieldLength,
		TruncateWithinLimit:      i.TruncateWithinLimit,
		IncludeTemplateID:        i.IncludeTemplateID,
		IncludedTemplates:        i.IncludedTemplates,
		ExcludedTemplates:        i.ExcludedTemplates,
		IndexAllFields:           i.IndexAllFields == nil || *i.IndexAllFields,
		IncludedFields:           i.IncludedFields,
		ExcludedFields:           i.ExcludedFields,
		AllowReservedOverwrite:   i.AllowReservedOverwrite,
		ObjectIDMode:             i.ObjectIDMode,
		IncludeVersionInObjectID: i.IncludeVersionInObjectID,
		IndexVariants:            i.IndexVariants,
		ComputedFields:           i.ComputedFields,
		Tags:                     i.Tags,
		FieldTypes: fieldtype.Map{
			Types:          make(map[string]fieldtype.Kind, len(i.FieldTypes)),
			NumericReaders: i.NumericReaders,
		},
	}
	if opts.MaxFieldLength == 0 {
		opts.MaxFieldLength = DefaultMaxFieldLength
	}
	if opts.ObjectIDMode == "" {
		opts.ObjectIDMode = ObjectIDModeID
	}

	for _, ft := range i.FieldTypes {
		kind, err := fieldtype.ParseKind(ft.Kind)
		if err != nil {
			return DocumentOptions{}, fmt.Errorf("field type %q: %w", ft.Name, err)
		}
		opts.FieldTypes.Types[ft.Name] = kind
	}

	return opts, nil
}

// HasStrategy reports whether the index declares the named strategy.
func (i *Index) HasStrategy(name string) bool {
	for _, s := range i.Strategies {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// DocumentOptions parameterize how records become documents.
type DocumentOptions struct {
	MaxFieldLength           int
	TruncateWithinLimit      bool
	IncludeTemplateID        bool
	IncludedTemplates        []string
	ExcludedTemplates        []string
	IndexAllFields           bool
	IncludedFields           []string
	ExcludedFields           []string
	AllowReservedOverwrite   bool
	ObjectIDMode             string
	IncludeVersionInObjectID bool
	IndexVariants            bool
	FieldTypes               fieldtype.Map
	ComputedFields           []ComputedField
	Tags                     []TagRule
}

// DefaultDocumentOptions returns options with every default applied.
func DefaultDocumentOptions() DocumentOptions {
	return DocumentOptions{
		MaxFieldLength: DefaultMaxFieldLength,
		IndexAllFields: true,
		ObjectIDMode:   ObjectIDModeID,
	}
}

// IncludesTemplate reports whether records of templateID belong in the index.
// An empty include list admits every template not explicitly excluded.
func (o DocumentOptions) IncludesTemplate(templateID string) bool {
	for _, t := range o.ExcludedTemplates {
		if sameTemplate(t, templateID) {
			return false
		}
	}
	if len(o.IncludedTemplates) == 0 {
		return true
	}
	for _, t := range o.IncludedTemplates {
		if sameTemplate(t, templateID) {
			return true
		}
	}
	return false
}

// IncludesField reports whether a source field with the given name is
// indexed.
func (o DocumentOptions) IncludesField(name string) bool {
	for _, f := range o.ExcludedFields {
		if strings.EqualFold(f, name) {
			return false
		}
	}
	if o.IndexAllFields {
		return true
	}
	for _, f := range o.IncludedFields {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// sameTemplate compares template IDs ignoring case and surrounding braces.
func sameTemplate(a, b string) bool {
	trim := func(s string) string {
		return strings.Trim(strings.TrimSpace(s), "{}")
	}
	return strings.EqualFold(trim(a), trim(b))
}

// Accepts reports whether rec falls under the crawler's database and root.
func (c Crawler) Accepts(rec *record.Record) bool {
	if c.Database != "" && rec.Database != "" && !strings.EqualFold(c.Database, rec.Database) {
		return false
	}
	if c.Root == "" {
		return true
	}
	root := strings.TrimSuffix(strings.ToLower(c.Root), "/")
	path := strings.ToLower(rec.Path)
	return path == root || strings.HasPrefix(path, root+"/")
}

// Hidden reports whether the record's display flag field excludes it from
// search results. Records without the field are visible.
func (c Crawler) Hidden(rec *record.Record) bool {
	if c.ShowInSearchResultsField == "" {
		return false
	}
	f, ok := rec.Field(c.ShowInSearchResultsField)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(f.Value)) {
	case "1", "true", "yes":
		return false
	}
	return true
}
