// Package updatecontext decides when built documents reach the search
// client. An Immediate context forwards every operation as it happens. A
// Batched context stages operations and sends them on Commit.
package updatecontext

import (
	"context"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
)

// Context receives document operations for one indexing session.
// Implementations are not safe for concurrent use.
type Context interface {
	AddDocument(ctx context.Context, doc document.Document) error
	UpdateDocument(ctx context.Context, doc document.Document, criteria search.Criteria) error
	DeleteDocument(ctx context.Context, objectID string) error
}

// Committer is implemented by contexts that stage operations.
type Committer interface {
	// Commit sends staged operations. On failure the staged operations are
	// kept so a later Commit resends them.
	Commit(ctx context.Context) error

	// Pending returns the number of staged operations.
	Pending() int
}

// Commit commits uc if it stages operations and is a no-op otherwise.
func Commit(ctx context.Context, uc Context) error {
	if c, ok := uc.(Committer); ok {
		return c.Commit(ctx)
	}
	return nil
}
