// Package bleve implements search.Client on an embedded Bleve index. It is
// used for local runs and tests where no hosted backend is available.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
)

// Config contains Bleve configuration.
type Config struct {
	// IndexPath is the base directory for indexes (e.g. "./data/search").
	// Empty means an in-memory index.
	IndexPath string
	IndexName string

	Logger hclog.Logger
}

// Adapter implements search.Client for one Bleve index.
type Adapter struct {
	index  bleve.Index
	logger hclog.Logger
}

var _ search.Client = (*Adapter)(nil)

// NewAdapter opens or creates the index named cfg.IndexName under
// cfg.IndexPath.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("bleve index name required")
	}

	var (
		idx bleve.Index
		err error
	)
	if cfg.IndexPath == "" {
		idx, err = bleve.NewMemOnly(createDocumentMapping())
	} else {
		if err := os.MkdirAll(cfg.IndexPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		idx, err = openOrCreateIndex(filepath.Join(cfg.IndexPath, cfg.IndexName+".bleve"), createDocumentMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Adapter{index: idx, logger: logger.Named("bleve")}, nil
}

// openOrCreateIndex opens an existing Bleve index or creates a new one.
func openOrCreateIndex(path string, indexMapping mapping.IndexMapping) (bleve.Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return bleve.New(path, indexMapping)
	}
	return idx, err
}

// createDocumentMapping indexes reserved keys as keywords and everything else
// dynamically.
func createDocumentMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(document.KeyObjectID, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(itemIDField, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(document.KeyFullPath, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(document.KeyLanguage, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(document.KeyTemplate, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(document.KeyTags, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(document.KeyName, textFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping
}

// itemIDField holds the document's _id key. Bleve reserves _id for its own
// document identifier.
const itemIDField = "itemId"

// fields returns doc as a map with _id renamed to itemIDField.
func fields(doc document.Document) map[string]any {
	m := doc.Map()
	if v, ok := m[document.KeyID]; ok {
		delete(m, document.KeyID)
		m[itemIDField] = v
	}
	return m
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return string(search.ProviderTypeBleve)
}

// SaveObjects indexes docs in one batch.
func (a *Adapter) SaveObjects(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := search.CheckObjectIDs("SaveObjects", docs...); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &search.Error{Op: "SaveObjects", Err: err}
	}

	batch := a.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ObjectID(), fields(doc)); err != nil {
			return &search.Error{Op: "SaveObjects", Err: search.ErrIndexingFailed, Msg: err.Error()}
		}
	}
	if err := a.index.Batch(batch); err != nil {
		return &search.Error{Op: "SaveObjects", Err: search.ErrIndexingFailed, Msg: err.Error()}
	}

	a.logger.Debug("saved objects", "count", len(docs))
	return nil
}

// AddObject indexes one document.
func (a *Adapter) AddObject(ctx context.Context, doc document.Document) error {
	return a.indexOne(ctx, "AddObject", doc)
}

// UpdateObject replaces the document selected by criteria.
func (a *Adapter) UpdateObject(ctx context.Context, criteria search.Criteria, doc document.Document) error {
	if err := search.CheckCriteria("UpdateObject", criteria, doc); err != nil {
		return err
	}
	return a.indexOne(ctx, "UpdateObject", doc)
}

func (a *Adapter) indexOne(ctx context.Context, op string, doc document.Document) error {
	if err := search.CheckObjectIDs(op, doc); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &search.Error{Op: op, Err: err}
	}
	if err := a.index.Index(doc.ObjectID(), fields(doc)); err != nil {
		return &search.Error{Op: op, Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	return nil
}

// DeleteObject removes one document.
func (a *Adapter) DeleteObject(ctx context.Context, objectID string) error {
	if objectID == "" {
		return &search.Error{Op: "DeleteObject", Err: search.ErrInvalidDocument, Msg: "objectID is required"}
	}
	if err := ctx.Err(); err != nil {
		return &search.Error{Op: "DeleteObject", Err: err}
	}
	if err := a.index.Delete(objectID); err != nil {
		return &search.Error{Op: "DeleteObject", Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	return nil
}

// DeleteObjects removes documents in one batch.
func (a *Adapter) DeleteObjects(ctx context.Context, objectIDs []string) error {
	if len(objectIDs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &search.Error{Op: "DeleteObjects", Err: err}
	}

	batch := a.index.NewBatch()
	for _, id := range objectIDs {
		batch.Delete(id)
	}
	if err := a.index.Batch(batch); err != nil {
		return &search.Error{Op: "DeleteObjects", Err: search.ErrIndexingFailed, Msg: err.Error()}
	}
	return nil
}

// Count returns the number of documents in the index.
func (a *Adapter) Count() (uint64, error) {
	n, err := a.index.DocCount()
	if err != nil {
		return 0, &search.Error{Op: "Count", Err: search.ErrBackendUnavailable, Msg: err.Error()}
	}
	return n, nil
}

// Has reports whether a document with objectID is indexed.
func (a *Adapter) Has(objectID string) (bool, error) {
	doc, err := a.index.Document(objectID)
	if err != nil {
		return false, &search.Error{Op: "Has", Err: search.ErrBackendUnavailable, Msg: err.Error()}
	}
	return doc != nil, nil
}

// Close closes the index.
func (a *Adapter) Close() error {
	return a.index.Close()
}
