// Package algolia implements search.Client for Algolia.
package algolia

import (
	"context"
	"fmt"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	algoliasearch "github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
)

// Config contains Algolia configuration.
type Config struct {
	AppID       string
	WriteAPIKey string
	IndexName   string

	// WaitForTasks blocks each write until Algolia reports the task
	// published.
	WaitForTasks bool

	Logger hclog.Logger
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.AppID == "" {
		return fmt.Errorf("algolia app ID required")
	}
	if c.WriteAPIKey == "" {
		return fmt.Errorf("algolia write API key required")
	}
	if c.IndexName == "" {
		return fmt.Errorf("algolia index name required")
	}
	return nil
}

// objectIndex is the subset of *algoliasearch.Index used by the adapter.
type objectIndex interface {
	SaveObjects(objects interface{}, opts ...interface{}) (algoliasearch.GroupBatchRes, error)
	SaveObject(object interface{}, opts ...interface{}) (algoliasearch.SaveObjectRes, error)
	DeleteObject(objectID string, opts ...interface{}) (algoliasearch.DeleteTaskRes, error)
	DeleteObjects(objectIDs []string, opts ...interface{}) (algoliasearch.BatchRes, error)
}

// waiter is implemented by Algolia task responses.
type waiter interface {
	Wait(opts ...interface{}) error
}

// Adapter implements search.Client for one Algolia index.
type Adapter struct {
	index  objectIndex
	wait   bool
	logger hclog.Logger
}

var _ search.Client = (*Adapter)(nil)

// NewAdapter creates a new Algolia adapter.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := algoliasearch.NewClient(cfg.AppID, cfg.WriteAPIKey)
	return newAdapter(client.InitIndex(cfg.IndexName), cfg), nil
}

func newAdapter(index objectIndex, cfg *Config) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Adapter{
		index:  index,
		wait:   cfg.WaitForTasks,
		logger: logger.Named("algolia"),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return string(search.ProviderTypeAlgolia)
}

// SaveObjects upserts docs as one batch.
func (a *Adapter) SaveObjects(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := search.CheckObjectIDs("SaveObjects", docs...); err != nil {
		return err
	}

	res, err := a.index.SaveObjects(search.Maps(docs), ctx, opt.AutoGenerateObjectIDIfNotExist(false))
	if err != nil {
		return &search.Error{Op: "SaveObjects", Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	if err := a.waitFor(ctx, "SaveObjects", res); err != nil {
		return err
	}

	a.logger.Debug("saved objects", "count", len(docs))
	return nil
}

// AddObject upserts one document.
func (a *Adapter) AddObject(ctx context.Context, doc document.Document) error {
	return a.saveObject(ctx, "AddObject", doc)
}

// UpdateObject replaces the document selected by criteria. Algolia replaces
// whole records by objectID, so the criteria must name doc's objectID.
func (a *Adapter) UpdateObject(ctx context.Context, criteria search.Criteria, doc document.Document) error {
	if err := search.CheckCriteria("UpdateObject", criteria, doc); err != nil {
		return err
	}
	return a.saveObject(ctx, "UpdateObject", doc)
}

func (a *Adapter) saveObject(ctx context.Context, op string, doc document.Document) error {
	if err := search.CheckObjectIDs(op, doc); err != nil {
		return err
	}
	res, err := a.index.SaveObject(doc.Map(), ctx)
	if err != nil {
		return &search.Error{Op: op, Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	return a.waitFor(ctx, op, res)
}

// DeleteObject removes one document.
func (a *Adapter) DeleteObject(ctx context.Context, objectID string) error {
	if objectID == "" {
		return &search.Error{Op: "DeleteObject", Err: search.ErrInvalidDocument, Msg: "objectID is required"}
	}
	res, err := a.index.DeleteObject(objectID, ctx)
	if err != nil {
		return &search.Error{Op: "DeleteObject", Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	return a.waitFor(ctx, "DeleteObject", res)
}

// DeleteObjects removes documents as one batch.
func (a *Adapter) DeleteObjects(ctx context.Context, objectIDs []string) error {
	if len(objectIDs) == 0 {
		return nil
	}
	res, err := a.index.DeleteObjects(objectIDs, ctx)
	if err != nil {
		return &search.Error{Op: "DeleteObjects", Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	if err := a.waitFor(ctx, "DeleteObjects", res); err != nil {
		return err
	}

	a.logger.Debug("deleted objects", "count", len(objectIDs))
	return nil
}

func (a *Adapter) waitFor(ctx context.Context, op string, res waiter) error {
	if !a.wait {
		return nil
	}
	if err := res.Wait(ctx); err != nil {
		return &search.Error{Op: op, Err: search.ErrBackendUnavailable, Msg: err.Error()}
	}
	return nil
}
