// Package operations maps record lifecycle events onto an update context.
// It holds no state between calls and never retries or batches; that is the
// update context's job.
package operations

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsearch/pkg/builder"
	"github.com/hashicorp-forge/contentsearch/pkg/indexconfig"
	"github.com/hashicorp-forge/contentsearch/pkg/record"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
	"github.com/hashicorp-forge/contentsearch/pkg/updatecontext"
)

// Key identifies what to delete: a record, whose objectIDs are derived, or a
// precomputed objectID.
type Key struct {
	Record   *record.Record
	ObjectID string
}

// RecordKey returns the Key for rec.
func RecordKey(rec *record.Record) Key {
	return Key{Record: rec}
}

// ObjectIDKey returns the Key for a known objectID.
func ObjectIDKey(objectID string) Key {
	return Key{ObjectID: objectID}
}

// Outcome reports what an operation forwarded to the update context.
type Outcome struct {
	Documents int  // Documents added or updated.
	Deletions int  // Deletions requested.
	Skipped   bool // The record was filtered out.
}

// Operations builds documents and hands them to an update context.
type Operations struct {
	builder        *builder.Builder
	crawlers       []indexconfig.Crawler
	filterTemplate bool
	logger         hclog.Logger
}

// Option configures Operations.
type Option func(*Operations)

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(o *Operations) {
		o.logger = logger
	}
}

// WithCrawlers scopes Add and Update to records accepted by one of crawlers.
// No crawlers means every record is in scope.
func WithCrawlers(crawlers []indexconfig.Crawler) Option {
	return func(o *Operations) {
		o.crawlers = crawlers
	}
}

// WithTemplateFilter enables or disables the included/excluded template
// check. It is enabled by default.
func WithTemplateFilter(enabled bool) Option {
	return func(o *Operations) {
		o.filterTemplate = enabled
	}
}

// New creates Operations around b.
func New(b *builder.Builder, opts ...Option) *Operations {
	o := &Operations{
		builder:        b,
		filterTemplate: true,
		logger:         hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Add builds the documents for rec and adds them to uc. Records outside the
// index scope are skipped.
func (o *Operations) Add(ctx context.Context, rec *record.Record, uc updatecontext.Context) (Outcome, error) {
	if in, _ := o.inScope(rec); !in {
		o.logger.Debug("skipping record", "path", rec.Path, "op", "add")
		return Outcome{Skipped: true}, nil
	}

	docs, err := o.builder.Build(ctx, rec)
	if err != nil {
		return Outcome{}, err
	}
	for _, doc := range docs {
		if err := uc.AddDocument(ctx, doc); err != nil {
			return Outcome{}, fmt.Errorf("failed to add document %s: %w", doc.ObjectID(), err)
		}
	}
	return Outcome{Documents: len(docs)}, nil
}

// Update builds the documents for rec and sends them to uc as replacements
// matched by objectID. A record hidden by its crawler's display flag is
// deleted instead, so unpublishing removes it from the index.
func (o *Operations) Update(ctx context.Context, rec *record.Record, uc updatecontext.Context) (Outcome, error) {
	in, hidden := o.inScope(rec)
	if hidden {
		o.logger.Debug("record hidden, deleting", "path", rec.Path)
		return o.Delete(ctx, RecordKey(rec), uc)
	}
	if !in {
		o.logger.Debug("skipping record", "path", rec.Path, "op", "update")
		return Outcome{Skipped: true}, nil
	}

	docs, err := o.builder.Build(ctx, rec)
	if err != nil {
		return Outcome{}, err
	}
	for _, doc := range docs {
		criteria := search.Criteria{ObjectID: doc.ObjectID()}
		if err := uc.UpdateDocument(ctx, doc, criteria); err != nil {
			return Outcome{}, fmt.Errorf("failed to update document %s: %w", doc.ObjectID(), err)
		}
	}
	return Outcome{Documents: len(docs)}, nil
}

// Delete requests deletion of the documents identified by key. For a record
// key this covers its variants when variants are indexed. No document is
// built.
func (o *Operations) Delete(ctx context.Context, key Key, uc updatecontext.Context) (Outcome, error) {
	ids, err := o.objectIDs(key)
	if err != nil {
		return Outcome{}, err
	}
	for _, id := range ids {
		if err := uc.DeleteDocument(ctx, id); err != nil {
			return Outcome{}, fmt.Errorf("failed to delete document %s: %w", id, err)
		}
	}
	return Outcome{Deletions: len(ids)}, nil
}

func (o *Operations) objectIDs(key Key) ([]string, error) {
	if key.Record == nil {
		if key.ObjectID == "" {
			return nil, &builder.BuildError{Err: builder.ErrMissingIdentifier}
		}
		return []string{key.ObjectID}, nil
	}

	id, err := o.builder.ObjectID(key.Record)
	if err != nil {
		return nil, &builder.BuildError{Path: key.Record.Path, Err: err}
	}
	ids := []string{id}
	if !o.builder.Options().IndexVariants {
		return ids, nil
	}

	seen := map[string]bool{id: true}
	for _, v := range key.Record.Variants {
		if v == nil {
			continue
		}
		vid, err := o.builder.ObjectID(v)
		if err != nil || seen[vid] {
			continue
		}
		seen[vid] = true
		ids = append(ids, vid)
	}
	return ids, nil
}

// inScope reports whether rec passes the template filter and is accepted by a
// crawler, and whether the accepting crawler hides it.
func (o *Operations) inScope(rec *record.Record) (in bool, hidden bool) {
	if rec == nil {
		return true, false
	}
	if o.filterTemplate && !o.builder.Options().IncludesTemplate(rec.TemplateID) {
		return false, false
	}
	if len(o.crawlers) == 0 {
		return true, false
	}
	for _, c := range o.crawlers {
		if c.Accepts(rec) {
			if c.Hidden(rec) {
				return false, true
			}
			return true, false
		}
	}
	return false, false
}
