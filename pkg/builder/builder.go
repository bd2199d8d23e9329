// Package builder turns content records into search documents.
//
// A Builder is configured once from an index definition and is then safe for
// concurrent use. Each call to Build produces a fresh, immutable document per
// record (and per variant when variants are indexed).
package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsearch/pkg/computed"
	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/fieldtype"
	"github.com/hashicorp-forge/contentsearch/pkg/indexconfig"
	"github.com/hashicorp-forge/contentsearch/pkg/record"
	"github.com/hashicorp-forge/contentsearch/pkg/tags"
)

// Ellipsis marks a truncated value.
const Ellipsis = "..."

// DisplayNameField is the source field holding an item's display name.
const DisplayNameField = "__Display name"

// ErrMissingIdentifier is returned when a record has no usable identity.
var ErrMissingIdentifier = errors.New("record has no identifier")

// BuildError is a failure to build the document for a single record.
type BuildError struct {
	// Path of the record, if known.
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to build document: %v", e.Err)
	}
	return fmt.Sprintf("failed to build document for %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder builds documents for one index.
type Builder struct {
	opts      indexconfig.DocumentOptions
	converter *fieldtype.Converter
	tags      *tags.Processor
	computed  []computedField
	lookup    record.AncestorLookup
	logger    hclog.Logger
}

type computedField struct {
	name   string
	fn     computed.Func
	params map[string]string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithAncestorLookup sets how computed fields resolve ancestors. The default
// reads the ancestors carried on the record.
func WithAncestorLookup(lookup record.AncestorLookup) Option {
	return func(b *Builder) {
		b.lookup = lookup
	}
}

// New creates a Builder. Computed fields in opts are resolved against
// registry, which defaults to computed.DefaultRegistry().
func New(opts indexconfig.DocumentOptions, registry *computed.Registry, options ...Option) (*Builder, error) {
	if opts.MaxFieldLength <= 0 {
		opts.MaxFieldLength = indexconfig.DefaultMaxFieldLength
	}
	if opts.ObjectIDMode == "" {
		opts.ObjectIDMode = indexconfig.ObjectIDModeID
	}
	if registry == nil {
		registry = computed.DefaultRegistry()
	}

	b := &Builder{
		opts:      opts,
		converter: fieldtype.NewConverter(opts.FieldTypes),
		tags:      tags.NewProcessor(opts.Tags),
		lookup:    record.EmbeddedAncestors,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range options {
		opt(b)
	}

	for _, cf := range opts.ComputedFields {
		fn, ok := registry.Lookup(cf.Type)
		if !ok {
			return nil, fmt.Errorf("computed field %q: unknown type %q", cf.Name, cf.Type)
		}
		b.computed = append(b.computed, computedField{
			name:   cf.Name,
			fn:     fn,
			params: cf.Params,
		})
	}

	return b, nil
}

// Options returns the options the Builder was created with.
func (b *Builder) Options() indexconfig.DocumentOptions {
	return b.opts
}

// ObjectID returns the document identity for rec: the language code and the
// record key joined by an underscore, lower-cased. The key is the record ID
// or its path depending on the object ID mode.
func (b *Builder) ObjectID(rec *record.Record) (string, error) {
	if rec == nil {
		return "", ErrMissingIdentifier
	}

	var key string
	switch b.opts.ObjectIDMode {
	case indexconfig.ObjectIDModePath:
		key = strings.TrimSpace(rec.Path)
	default:
		if rec.ID != uuid.Nil {
			key = rec.ID.String()
		}
	}
	if key == "" {
		return "", ErrMissingIdentifier
	}

	id := key
	if lang := strings.TrimSpace(rec.Language); lang != "" {
		id = lang + "_" + key
	}
	if b.opts.IncludeVersionInObjectID {
		id = fmt.Sprintf("%s_v%d", id, rec.Version)
	}
	return strings.ToLower(id), nil
}

// Build returns the document for rec followed by the documents for its
// variants when variant indexing is enabled. Only identity failures of the
// primary record are returned; field and computed field problems are logged
// and the offending values omitted.
func (b *Builder) Build(ctx context.Context, rec *record.Record) ([]document.Document, error) {
	doc, err := b.BuildOne(ctx, rec)
	if err != nil {
		return nil, err
	}
	docs := []document.Document{doc}
	if !b.opts.IndexVariants || len(rec.Variants) == 0 {
		return docs, nil
	}

	seen := map[string]bool{doc.ObjectID(): true}
	for _, v := range rec.Variants {
		if v == nil {
			continue
		}
		vdoc, err := b.BuildOne(ctx, v)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Warn("skipping variant",
				"path", rec.Path,
				"language", v.Language,
				"version", v.Version,
				"error", err)
			continue
		}
		if seen[vdoc.ObjectID()] {
			continue
		}
		seen[vdoc.ObjectID()] = true
		docs = append(docs, vdoc)
	}
	return docs, nil
}

// BuildOne builds the document for rec alone, ignoring variants.
func (b *Builder) BuildOne(ctx context.Context, rec *record.Record) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return document.Document{}, err
	}
	if rec == nil || rec.ID == uuid.Nil {
		path := ""
		if rec != nil {
			path = rec.Path
		}
		return document.Document{}, &BuildError{Path: path, Err: ErrMissingIdentifier}
	}

	objectID, err := b.ObjectID(rec)
	if err != nil {
		return document.Document{}, &BuildError{Path: rec.Path, Err: err}
	}

	d := document.NewBuilder()
	d.Set(document.KeyObjectID, objectID)
	d.Set(document.KeyID, rec.ID.String())
	d.Set(document.KeyName, rec.Name)
	d.Set(document.KeyFullPath, b.truncate(rec.Path))
	d.Set(document.KeyLanguage, rec.Language)
	if b.opts.IncludeTemplateID {
		d.Set(document.KeyTemplate, rec.TemplateID)
	}

	b.addFields(d, rec, objectID)
	b.addDisplayName(d, rec)
	b.addComputed(ctx, d, rec, objectID)

	return b.tags.Process(d.Freeze()), nil
}

func (b *Builder) addFields(d *document.Builder, rec *record.Record, objectID string) {
	for _, f := range rec.Fields {
		if !b.opts.IncludesField(f.Name) {
			continue
		}
		key := CanonicalName(f.Name)
		if key == "" {
			continue
		}

		v, kind, err := b.converter.ConvertField(f.Type, f.Value)
		if err != nil {
			b.logger.Warn("skipping field",
				"object_id", objectID,
				"field", f.Name,
				"error", err)
			continue
		}
		if kind == fieldtype.String {
			v = b.truncate(v.(string))
		}

		b.put(d, key, v, objectID)
	}
}

// addDisplayName falls back to the record's display name when no display
// name field was indexed.
func (b *Builder) addDisplayName(d *document.Builder, rec *record.Record) {
	if rec.DisplayName == "" || !b.opts.IncludesField(DisplayNameField) {
		return
	}
	d.SetIfAbsent(CanonicalName(DisplayNameField), b.truncate(rec.DisplayName))
}

func (b *Builder) addComputed(ctx context.Context, d *document.Builder, rec *record.Record, objectID string) {
	for _, cf := range b.computed {
		v, err := cf.fn(ctx, rec, b.lookup, cf.params)
		if err != nil {
			b.logger.Warn("skipping computed field",
				"object_id", objectID,
				"field", cf.name,
				"error", err)
			continue
		}
		b.put(d, cf.name, v, objectID)
	}
}

// put stores v under key unless key names a reserved key and overwrites are
// not allowed.
func (b *Builder) put(d *document.Builder, key string, v any, objectID string) {
	if reserved, ok := reservedKey(key); ok {
		if !b.opts.AllowReservedOverwrite {
			b.logger.Debug("field shadows reserved key",
				"object_id", objectID,
				"field", key)
			return
		}
		key = reserved
	}
	d.Set(key, v)
}

func (b *Builder) truncate(s string) string {
	return Truncate(s, b.opts.MaxFieldLength, b.opts.TruncateWithinLimit)
}

// Truncate shortens s to limit characters and appends Ellipsis. With
// withinLimit the marker is counted against limit. Values of at most limit
// characters are returned unchanged.
func Truncate(s string, limit int, withinLimit bool) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit
	if withinLimit {
		keep = limit - utf8.RuneCountInString(Ellipsis)
		if keep < 0 {
			keep = 0
		}
	}
	runes := []rune(s)
	return string(runes[:keep]) + Ellipsis
}

// CanonicalName returns the document key for a source field name: lower-case,
// without leading underscores or whitespace. "__Display name" becomes
// "displayname".
func CanonicalName(name string) string {
	name = strings.TrimLeft(strings.TrimSpace(name), "_")
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

var reservedKeys = []string{
	document.KeyObjectID,
	document.KeyID,
	document.KeyName,
	document.KeyFullPath,
	document.KeyLanguage,
	document.KeyTemplate,
	document.KeyTags,
}

// reservedKey reports whether key collides with a reserved key, ignoring
// case, and returns the reserved spelling.
func reservedKey(key string) (string, bool) {
	for _, r := range reservedKeys {
		if strings.EqualFold(key, r) {
			return r, true
		}
	}
	return "", false
}
