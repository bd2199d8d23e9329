package updatecontext

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
)

// Immediate forwards each operation to the client as a single-document call.
type Immediate struct {
	client search.Client
	logger hclog.Logger
}

var _ Context = (*Immediate)(nil)

// NewImmediate returns an Immediate context writing to client.
func NewImmediate(client search.Client, logger hclog.Logger) *Immediate {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Immediate{client: client, logger: logger.Named("immediate")}
}

// AddDocument calls AddObject.
func (c *Immediate) AddDocument(ctx context.Context, doc document.Document) error {
	c.logger.Trace("add", "object_id", doc.ObjectID())
	return c.client.AddObject(ctx, doc)
}

// UpdateDocument calls UpdateObject.
func (c *Immediate) UpdateDocument(ctx context.Context, doc document.Document, criteria search.Criteria) error {
	c.logger.Trace("update", "object_id", doc.ObjectID())
	return c.client.UpdateObject(ctx, criteria, doc)
}

// DeleteDocument calls DeleteObject.
func (c *Immediate) DeleteDocument(ctx context.Context, objectID string) error {
	c.logger.Trace("delete", "object_id", objectID)
	return c.client.DeleteObject(ctx, objectID)
}
