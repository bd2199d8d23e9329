// Package search defines the contract between the update contexts and a
// remote search index.
package search

import (
	"context"
	"fmt"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
)

// ProviderType names a search backend.
type ProviderType string

const (
	ProviderTypeAlgolia     ProviderType = "algolia"
	ProviderTypeMeilisearch ProviderType = "meilisearch"
	ProviderTypeBleve       ProviderType = "bleve"
)

// Criteria selects the document an update replaces.
type Criteria struct {
	ObjectID string
}

// Client writes documents to one remote index. Implementations return *Error
// values that wrap one of the package sentinels where possible.
type Client interface {
	// Name returns the backend name.
	Name() string

	// SaveObjects upserts docs in a single request.
	SaveObjects(ctx context.Context, docs []document.Document) error

	// AddObject upserts one document.
	AddObject(ctx context.Context, doc document.Document) error

	// UpdateObject replaces the document matching criteria with doc.
	UpdateObject(ctx context.Context, criteria Criteria, doc document.Document) error

	// DeleteObject removes one document.
	DeleteObject(ctx context.Context, objectID string) error

	// DeleteObjects removes documents in a single request.
	DeleteObjects(ctx context.Context, objectIDs []string) error
}

// CheckObjectIDs returns an ErrInvalidDocument error for op if any document
// lacks an objectID.
func CheckObjectIDs(op string, docs ...document.Document) error {
	for i, doc := range docs {
		if doc.ObjectID() == "" {
			return &Error{
				Op:  op,
				Err: ErrInvalidDocument,
				Msg: fmt.Sprintf("document %d has no objectID", i),
			}
		}
	}
	return nil
}

// CheckCriteria returns an ErrInvalidDocument error for op if criteria selects
// a document other than doc.
func CheckCriteria(op string, criteria Criteria, doc document.Document) error {
	if err := CheckObjectIDs(op, doc); err != nil {
		return err
	}
	if criteria.ObjectID != "" && criteria.ObjectID != doc.ObjectID() {
		return &Error{
			Op:  op,
			Err: ErrInvalidDocument,
			Msg: fmt.Sprintf("criteria objectID %q does not match document %q", criteria.ObjectID, doc.ObjectID()),
		}
	}
	return nil
}

// Maps converts docs into the map form client libraries marshal.
func Maps(docs []document.Document) []map[string]any {
	out := make([]map[string]any, len(docs))
	for i, doc := range docs {
		out[i] = doc.Map()
	}
	return out
}
