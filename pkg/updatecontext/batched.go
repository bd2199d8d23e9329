package updatecontext

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
)

// Batched stages documents and deletions until Commit. Nothing reaches the
// client without a Commit; a Batched context dropped without one discards its
// batch. For any objectID the last staged operation wins: a document and a
// deletion of the same objectID are never pending together.
type Batched struct {
	client  search.Client
	logger  hclog.Logger
	docs    []document.Document
	deletes []string
}

var (
	_ Context   = (*Batched)(nil)
	_ Committer = (*Batched)(nil)
)

// NewBatched returns a Batched context writing to client.
func NewBatched(client search.Client, logger hclog.Logger) *Batched {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Batched{client: client, logger: logger.Named("batched")}
}

// AddDocument stages doc. A deletion staged earlier for the same objectID is
// dropped, since the saved document replaces it.
func (c *Batched) AddDocument(_ context.Context, doc document.Document) error {
	c.stage(doc)
	return nil
}

// UpdateDocument stages doc. criteria is not used to merge with earlier
// entries for the same objectID.
func (c *Batched) UpdateDocument(_ context.Context, doc document.Document, _ search.Criteria) error {
	c.stage(doc)
	return nil
}

// DeleteDocument stages a deletion and drops documents staged earlier for
// objectID.
func (c *Batched) DeleteDocument(_ context.Context, objectID string) error {
	var docs []document.Document
	for _, d := range c.docs {
		if d.ObjectID() != objectID {
			docs = append(docs, d)
		}
	}
	c.docs = docs
	c.deletes = append(removeID(c.deletes, objectID), objectID)
	return nil
}

// stage appends doc. Saves are sent before deletions on Commit, so a pending
// deletion of the same objectID must not outlive it.
func (c *Batched) stage(doc document.Document) {
	c.deletes = removeID(c.deletes, doc.ObjectID())
	c.docs = append(c.docs, doc)
}

func removeID(ids []string, id string) []string {
	var out []string
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Pending returns the number of staged documents and deletions.
func (c *Batched) Pending() int {
	return len(c.docs) + len(c.deletes)
}

// Documents returns a copy of the staged documents.
func (c *Batched) Documents() []document.Document {
	out := make([]document.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Deletions returns a copy of the staged deletions.
func (c *Batched) Deletions() []string {
	out := make([]string, len(c.deletes))
	copy(out, c.deletes)
	return out
}

// Commit sends staged documents with one SaveObjects call and then staged
// deletions with one DeleteObjects call. Each part is cleared only after its
// call succeeds. Client errors are returned unchanged.
func (c *Batched) Commit(ctx context.Context) error {
	if len(c.docs) > 0 {
		if err := c.client.SaveObjects(ctx, c.docs); err != nil {
			return err
		}
		c.logger.Debug("committed documents", "count", len(c.docs))
		c.docs = nil
	}

	if len(c.deletes) > 0 {
		if err := c.client.DeleteObjects(ctx, c.deletes); err != nil {
			return err
		}
		c.logger.Debug("committed deletions", "count", len(c.deletes))
		c.deletes = nil
	}
	return nil
}

// Discard drops everything staged.
func (c *Batched) Discard() {
	c.docs = nil
	c.deletes = nil
}
