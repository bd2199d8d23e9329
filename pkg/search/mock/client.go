// Package mock provides a testify mock of search.Client.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
)

// Client mocks search.Client.
type Client struct {
	mock.Mock
}

var _ search.Client = (*Client)(nil)

// NewClient returns a Client whose Name is "mock".
func NewClient() *Client {
	return &Client{}
}

func (m *Client) Name() string {
	return "mock"
}

func (m *Client) SaveObjects(ctx context.Context, docs []document.Document) error {
	return m.Called(ctx, docs).Error(0)
}

func (m *Client) AddObject(ctx context.Context, doc document.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *Client) UpdateObject(ctx context.Context, criteria search.Criteria, doc document.Document) error {
	return m.Called(ctx, criteria, doc).Error(0)
}

func (m *Client) DeleteObject(ctx context.Context, objectID string) error {
	return m.Called(ctx, objectID).Error(0)
}

func (m *Client) DeleteObjects(ctx context.Context, objectIDs []string) error {
	return m.Called(ctx, objectIDs).Error(0)
}

// DocsWithIDs matches a []document.Document argument holding exactly ids, in
// order.
func DocsWithIDs(ids ...string) interface{} {
	return mock.MatchedBy(func(docs []document.Document) bool {
		if len(docs) != len(ids) {
			return false
		}
		for i, doc := range docs {
			if doc.ObjectID() != ids[i] {
				return false
			}
		}
		return true
	})
}

// DocWithID matches a document.Document argument with objectID id.
func DocWithID(id string) interface{} {
	return mock.MatchedBy(func(doc document.Document) bool {
		return doc.ObjectID() == id
	})
}
