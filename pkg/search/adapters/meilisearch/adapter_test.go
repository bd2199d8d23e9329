package meilisearch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
)

type fakeIndex struct {
	updated     [][]map[string]any
	primaryKeys []string
	deleted     [][]string
	waited      []int64
	taskStatus  meilisearch.TaskStatus
	err         error
	waitErr     error
	nextUID     int64
}

func (f *fakeIndex) UpdateDocumentsWithContext(_ context.Context, documentsPtr interface{}, opts *meilisearch.DocumentOptions) (*meilisearch.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = append(f.updated, documentsPtr.([]map[string]any))
	if opts != nil && opts.PrimaryKey != nil {
		f.primaryKeys = append(f.primaryKeys, *opts.PrimaryKey)
	}
	f.nextUID++
	return &meilisearch.TaskInfo{TaskUID: f.nextUID}, nil
}

func (f *fakeIndex) DeleteDocumentsWithContext(_ context.Context, identifiers []string, _ *meilisearch.DocumentOptions) (*meilisearch.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, identifiers)
	f.nextUID++
	return &meilisearch.TaskInfo{TaskUID: f.nextUID}, nil
}

func (f *fakeIndex) WaitForTaskWithContext(_ context.Context, taskUID int64, _ time.Duration) (*meilisearch.Task, error) {
	f.waited = append(f.waited, taskUID)
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	status := f.taskStatus
	if status == "" {
		status = meilisearch.TaskStatusSucceeded
	}
	return &meilisearch.Task{UID: taskUID, Status: status}, nil
}

func testDoc(id string) document.Document {
	return document.NewBuilder().
		Set(document.KeyObjectID, id).
		Set(document.KeyID, "abc").
		Freeze()
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			cfg: &Config{
				Host:      "http://meilisearch.local:7700",
				APIKey:    "test-key",
				IndexName: "products",
			},
		},
		{
			name:    "missing host",
			cfg:     &Config{IndexName: "products"},
			wantErr: true,
			errMsg:  "host required",
		},
		{
			name:    "missing index name",
			cfg:     &Config{Host: "http://localhost:7700"},
			wantErr: true,
			errMsg:  "index name required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := NewAdapter(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "meilisearch", adapter.Name())
		})
	}
}

func TestAdapter_SaveObjects(t *testing.T) {
	idx := &fakeIndex{}
	a := newAdapter(idx, &Config{})

	require.NoError(t, a.SaveObjects(context.Background(), []document.Document{testDoc("en_1"), testDoc("en_2")}))
	require.NoError(t, a.SaveObjects(context.Background(), nil))

	require.Len(t, idx.updated, 1)
	assert.Len(t, idx.updated[0], 2)
	assert.Equal(t, []string{"objectID"}, idx.primaryKeys)
	assert.Empty(t, idx.waited)
}

func TestAdapter_WaitForTasks(t *testing.T) {
	idx := &fakeIndex{}
	a := newAdapter(idx, &Config{WaitForTasks: true, WaitInterval: time.Millisecond})

	require.NoError(t, a.AddObject(context.Background(), testDoc("en_1")))
	require.NoError(t, a.DeleteObject(context.Background(), "en_1"))
	assert.Equal(t, []int64{1, 2}, idx.waited)

	idx.taskStatus = meilisearch.TaskStatusFailed
	err := a.DeleteObjects(context.Background(), []string{"en_2"})
	assert.ErrorIs(t, err, search.ErrIndexingFailed)
}

func TestAdapter_UpdateObjectCriteria(t *testing.T) {
	idx := &fakeIndex{}
	a := newAdapter(idx, &Config{})

	err := a.UpdateObject(context.Background(), search.Criteria{ObjectID: "en_2"}, testDoc("en_1"))
	assert.ErrorIs(t, err, search.ErrInvalidDocument)
	assert.Empty(t, idx.updated)

	require.NoError(t, a.UpdateObject(context.Background(), search.Criteria{ObjectID: "en_1"}, testDoc("en_1")))
	assert.Len(t, idx.updated, 1)
}

func TestAdapter_ErrorsWrapped(t *testing.T) {
	idx := &fakeIndex{err: errors.New("connection refused")}
	a := newAdapter(idx, &Config{})

	err := a.DeleteObjects(context.Background(), []string{"en_1"})
	var searchErr *search.Error
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, "DeleteObjects", searchErr.Op)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAdapter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		idx     *fakeIndex
		wantErr error
	}{
		{
			name:    "write rejected",
			idx:     &fakeIndex{err: errors.New("index_not_accessible")},
			wantErr: search.ErrIndexingFailed,
		},
		{
			name:    "task wait fails",
			idx:     &fakeIndex{waitErr: errors.New("connection refused")},
			wantErr: search.ErrBackendUnavailable,
		},
		{
			name:    "task failed",
			idx:     &fakeIndex{taskStatus: meilisearch.TaskStatusFailed},
			wantErr: search.ErrIndexingFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(tt.idx, &Config{WaitForTasks: true, WaitInterval: time.Millisecond})

			err := a.SaveObjects(context.Background(), []document.Document{testDoc("en_1")})
			var searchErr *search.Error
			require.ErrorAs(t, err, &searchErr)
			assert.Equal(t, "SaveObjects", searchErr.Op)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
