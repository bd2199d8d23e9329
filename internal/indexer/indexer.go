// Package indexer wires one configured index: its document builder, index
// operations, search client and property store.
package indexer

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/contentsearch/internal/config"
	"github.com/hashicorp-forge/contentsearch/pkg/builder"
	"github.com/hashicorp-forge/contentsearch/pkg/computed"
	"github.com/hashicorp-forge/contentsearch/pkg/indexconfig"
	"github.com/hashicorp-forge/contentsearch/pkg/operations"
	"github.com/hashicorp-forge/contentsearch/pkg/propertystore"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
	algoliaadapter "github.com/hashicorp-forge/contentsearch/pkg/search/adapters/algolia"
	bleveadapter "github.com/hashicorp-forge/contentsearch/pkg/search/adapters/bleve"
	meilisearchadapter "github.com/hashicorp-forge/contentsearch/pkg/search/adapters/meilisearch"
	"github.com/hashicorp-forge/contentsearch/pkg/session"
	"github.com/hashicorp-forge/contentsearch/pkg/updatecontext"
)

// Indexer holds everything needed to index records into one index.
type Indexer struct {
	Definition *indexconfig.Index
	Builder    *builder.Builder
	Operations *operations.Operations

	// Search is nil for offline indexers.
	Search search.Client
	// Store is nil when the index has no property store.
	Store *propertystore.Store

	logger  hclog.Logger
	closers []io.Closer
}

type options struct {
	offline  bool
	registry *computed.Registry
}

// Option configures New.
type Option func(*options)

// Offline skips the search client and property store. Offline indexers can
// only build documents.
func Offline() Option {
	return func(o *options) {
		o.offline = true
	}
}

// WithRegistry sets the computed field registry.
func WithRegistry(r *computed.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// New wires the index called name from cfg.
func New(cfg *config.Config, name string, logger hclog.Logger, opts ...Option) (*Indexer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	def, err := cfg.Index(name)
	if err != nil {
		return nil, err
	}
	logger = logger.Named(def.Name)

	docOpts, err := def.DocumentOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid index %q: %w", def.Name, err)
	}
	b, err := builder.New(docOpts, o.registry, builder.WithLogger(logger.Named("builder")))
	if err != nil {
		return nil, fmt.Errorf("failed to create document builder: %w", err)
	}

	ix := &Indexer{
		Definition: def,
		Builder:    b,
		Operations: operations.New(b,
			operations.WithCrawlers(def.Crawlers),
			operations.WithLogger(logger.Named("operations")),
		),
		logger: logger,
	}
	if o.offline {
		return ix, nil
	}

	ix.Search, err = NewSearchClient(cfg, def.Name, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search provider: %w", err)
	}
	if c, ok := ix.Search.(io.Closer); ok {
		ix.closers = append(ix.closers, c)
	}

	if def.PropertyStore != nil {
		psCfg, ok := cfg.PropertyStore(def.PropertyStore.Database)
		if !ok {
			ix.Close()
			return nil, fmt.Errorf("unknown property store %q", def.PropertyStore.Database)
		}
		ix.Store, err = propertystore.Open(psCfg.Driver, psCfg.DSN, logger.Named("propertystore"))
		if err != nil {
			ix.Close()
			return nil, fmt.Errorf("failed to open property store %q: %w", psCfg.Name, err)
		}
	}

	return ix, nil
}

// UpdateContext returns a new update context in the index's update mode.
func (ix *Indexer) UpdateContext() updatecontext.Context {
	if ix.Definition.UpdateMode == indexconfig.UpdateModeImmediate {
		return updatecontext.NewImmediate(ix.Search, ix.logger)
	}
	return updatecontext.NewBatched(ix.Search, ix.logger)
}

// SessionOptions returns the options every session of this index uses.
func (ix *Indexer) SessionOptions() []session.Option {
	opts := []session.Option{session.WithLogger(ix.logger.Named("session"))}
	if ix.Store != nil {
		opts = append(opts, session.WithPropertyStore(ix.Store, ix.Definition.PropertyStore.Key))
	}
	return opts
}

// NewSession returns a session writing through a new update context.
func (ix *Indexer) NewSession(extra ...session.Option) *session.Session {
	opts := append(ix.SessionOptions(), extra...)
	return session.New(ix.Operations, ix.UpdateContext(), opts...)
}

// Close releases the search client.
func (ix *Indexer) Close() error {
	var result *multierror.Error
	for _, c := range ix.closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	ix.closers = nil
	return result.ErrorOrNil()
}

// NewSearchClient creates the configured search client for index.
func NewSearchClient(cfg *config.Config, index string, logger hclog.Logger) (search.Client, error) {
	if cfg.Providers == nil {
		return nil, fmt.Errorf("providers configuration is missing")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	switch search.ProviderType(cfg.Providers.Search) {
	case search.ProviderTypeAlgolia:
		if cfg.Algolia == nil {
			return nil, fmt.Errorf("algolia configuration is missing")
		}
		client, err := algoliaadapter.NewAdapter(&algoliaadapter.Config{
			AppID:        cfg.Algolia.AppID,
			WriteAPIKey:  cfg.Algolia.WriteAPIKey,
			IndexName:    index,
			WaitForTasks: cfg.Algolia.WaitForTasks,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize algolia adapter: %w", err)
		}
		logger.Info("initialized search provider", "provider", "algolia")
		return client, nil

	case search.ProviderTypeMeilisearch:
		if cfg.Meilisearch == nil {
			return nil, fmt.Errorf("meilisearch configuration is missing")
		}
		client, err := meilisearchadapter.NewAdapter(&meilisearchadapter.Config{
			Host:         cfg.Meilisearch.Host,
			APIKey:       cfg.Meilisearch.APIKey,
			IndexName:    index,
			WaitForTasks: cfg.Meilisearch.WaitForTasks,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize meilisearch adapter: %w", err)
		}
		logger.Info("initialized search provider", "provider", "meilisearch")
		return client, nil

	case search.ProviderTypeBleve:
		bleveCfg := &bleveadapter.Config{IndexName: index, Logger: logger}
		if cfg.Bleve != nil {
			bleveCfg.IndexPath = cfg.Bleve.IndexPath
		}
		client, err := bleveadapter.NewAdapter(bleveCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bleve adapter: %w", err)
		}
		logger.Info("initialized search provider", "provider", "bleve")
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported search provider: %s (supported: algolia, meilisearch, bleve)", cfg.Providers.Search)
	}
}
