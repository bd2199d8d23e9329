// Package meilisearch implements search.Client for Meilisearch.
package meilisearch

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/meilisearch/meilisearch-go"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
)

// primaryKey is the Meilisearch primary key of every document.
const primaryKey = document.KeyObjectID

// Config contains Meilisearch configuration.
type Config struct {
	Host      string
	APIKey    string
	IndexName string

	// WaitForTasks blocks each write until the task finishes.
	WaitForTasks bool
	// WaitInterval is the task polling interval. Defaults to 50ms.
	WaitInterval time.Duration

	Logger hclog.Logger
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("meilisearch host required")
	}
	if c.IndexName == "" {
		return fmt.Errorf("meilisearch index name required")
	}
	return nil
}

// documentIndex is the subset of meilisearch.IndexManager used by the
// adapter.
type documentIndex interface {
	UpdateDocumentsWithContext(ctx context.Context, documentsPtr interface{}, opts *meilisearch.DocumentOptions) (*meilisearch.TaskInfo, error)
	DeleteDocumentsWithContext(ctx context.Context, identifiers []string, opts *meilisearch.DocumentOptions) (*meilisearch.TaskInfo, error)
	WaitForTaskWithContext(ctx context.Context, taskUID int64, interval time.Duration) (*meilisearch.Task, error)
}

// Adapter implements search.Client for one Meilisearch index.
type Adapter struct {
	index    documentIndex
	wait     bool
	interval time.Duration
	logger   hclog.Logger
}

var _ search.Client = (*Adapter)(nil)

// NewAdapter creates a new Meilisearch adapter.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var opts []meilisearch.Option
	if cfg.APIKey != "" {
		opts = append(opts, meilisearch.WithAPIKey(cfg.APIKey))
	}
	client := meilisearch.New(cfg.Host, opts...)
	return newAdapter(client.Index(cfg.IndexName), cfg), nil
}

func newAdapter(index documentIndex, cfg *Config) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	interval := cfg.WaitInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Adapter{
		index:    index,
		wait:     cfg.WaitForTasks,
		interval: interval,
		logger:   logger.Named("meilisearch"),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return string(search.ProviderTypeMeilisearch)
}

// SaveObjects upserts docs in one task. Meilisearch merges updates into
// existing documents; every document carries all of its keys so the result
// is a replacement.
func (a *Adapter) SaveObjects(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return a.update(ctx, "SaveObjects", docs)
}

// AddObject upserts one document.
func (a *Adapter) AddObject(ctx context.Context, doc document.Document) error {
	return a.update(ctx, "AddObject", []document.Document{doc})
}

// UpdateObject replaces the document selected by criteria.
func (a *Adapter) UpdateObject(ctx context.Context, criteria search.Criteria, doc document.Document) error {
	if err := search.CheckCriteria("UpdateObject", criteria, doc); err != nil {
		return err
	}
	return a.update(ctx, "UpdateObject", []document.Document{doc})
}

func (a *Adapter) update(ctx context.Context, op string, docs []document.Document) error {
	if err := search.CheckObjectIDs(op, docs...); err != nil {
		return err
	}
	pk := primaryKey
	task, err := a.index.UpdateDocumentsWithContext(ctx, search.Maps(docs), &meilisearch.DocumentOptions{PrimaryKey: &pk})
	if err != nil {
		return &search.Error{Op: op, Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	if err := a.waitFor(ctx, op, task); err != nil {
		return err
	}
	a.logger.Debug("updated documents", "op", op, "count", len(docs))
	return nil
}

// DeleteObject removes one document.
func (a *Adapter) DeleteObject(ctx context.Context, objectID string) error {
	if objectID == "" {
		return &search.Error{Op: "DeleteObject", Err: search.ErrInvalidDocument, Msg: "objectID is required"}
	}
	return a.delete(ctx, "DeleteObject", []string{objectID})
}

// DeleteObjects removes documents in one task.
func (a *Adapter) DeleteObjects(ctx context.Context, objectIDs []string) error {
	if len(objectIDs) == 0 {
		return nil
	}
	return a.delete(ctx, "DeleteObjects", objectIDs)
}

func (a *Adapter) delete(ctx context.Context, op string, objectIDs []string) error {
	task, err := a.index.DeleteDocumentsWithContext(ctx, objectIDs, nil)
	if err != nil {
		return &search.Error{Op: op, Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	return a.waitFor(ctx, op, task)
}

func (a *Adapter) waitFor(ctx context.Context, op string, info *meilisearch.TaskInfo) error {
	if !a.wait || info == nil {
		return nil
	}
	task, err := a.index.WaitForTaskWithContext(ctx, info.TaskUID, a.interval)
	if err != nil {
		return &search.Error{Op: op, Err: search.ErrBackendUnavailable, Msg: err.Error()}
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return &search.Error{Op: op, Err: search.ErrIndexingFailed, Msg: task.Error.Message}
	}
	return nil
}
