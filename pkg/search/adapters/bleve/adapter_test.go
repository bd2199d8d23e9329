package bleve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
	"github.com/hashicorp-forge/contentsearch/pkg/updatecontext"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(&Config{IndexName: "products"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func testDoc(id, name string) document.Document {
	return document.NewBuilder().
		Set(document.KeyObjectID, id).
		Set(document.KeyID, "0de95ae4-41ab-4d01-9eb0-67441b7c2450").
		Set(document.KeyName, name).
		Set(document.KeyFullPath, "/sitecore/content/"+name).
		Set(document.KeyLanguage, "en").
		Set(document.KeyTags, []string{"id_1"}).
		Set("count", int64(10)).
		Freeze()
}

func TestNewAdapter(t *testing.T) {
	_, err := NewAdapter(&Config{})
	assert.Error(t, err)

	dir := t.TempDir()
	a, err := NewAdapter(&Config{IndexPath: dir, IndexName: "products"})
	require.NoError(t, err)
	assert.Equal(t, "bleve", a.Name())
	require.NoError(t, a.SaveObjects(context.Background(), []document.Document{testDoc("en_1", "one")}))
	require.NoError(t, a.Close())

	// Reopening finds the existing index.
	a, err = NewAdapter(&Config{IndexPath: dir, IndexName: "products"})
	require.NoError(t, err)
	defer a.Close()

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestAdapter_SaveAndDelete(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, a.SaveObjects(ctx, []document.Document{
		testDoc("en_1", "one"),
		testDoc("en_2", "two"),
		testDoc("en_3", "three"),
	}))

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	require.NoError(t, a.DeleteObjects(ctx, []string{"en_1", "en_2"}))
	require.NoError(t, a.DeleteObject(ctx, "en_3"))

	n, err = a.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestAdapter_AddAndUpdate(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, a.AddObject(ctx, testDoc("en_1", "one")))
	require.NoError(t, a.UpdateObject(ctx, search.Criteria{ObjectID: "en_1"}, testDoc("en_1", "uno")))

	ok, err := a.Has("en_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Has("en_2")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	err = a.UpdateObject(ctx, search.Criteria{ObjectID: "en_9"}, testDoc("en_1", "uno"))
	assert.ErrorIs(t, err, search.ErrInvalidDocument)
}

func TestAdapter_InvalidDocument(t *testing.T) {
	a := newTestAdapter(t)

	err := a.SaveObjects(context.Background(), []document.Document{{}})
	var searchErr *search.Error
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, "SaveObjects", searchErr.Op)
	assert.ErrorIs(t, err, search.ErrInvalidDocument)
}

func TestAdapter_CanceledContext(t *testing.T) {
	a := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.SaveObjects(ctx, []document.Document{testDoc("en_1", "one")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFields_RenamesID(t *testing.T) {
	m := fields(testDoc("en_1", "one"))
	assert.NotContains(t, m, document.KeyID)
	assert.Equal(t, "0de95ae4-41ab-4d01-9eb0-67441b7c2450", m[itemIDField])
}

func TestBatched_ReAddAfterDeleteInOneCommit(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	require.NoError(t, a.SaveObjects(ctx, []document.Document{testDoc("en_1", "one"), testDoc("en_2", "two")}))

	uc := updatecontext.NewBatched(a, nil)
	require.NoError(t, uc.DeleteDocument(ctx, "en_1"))
	require.NoError(t, uc.AddDocument(ctx, testDoc("en_1", "source")))
	require.NoError(t, uc.AddDocument(ctx, testDoc("en_3", "three")))
	require.NoError(t, uc.DeleteDocument(ctx, "en_3"))
	require.NoError(t, uc.Commit(ctx))

	ok, err := a.Has("en_1")
	require.NoError(t, err)
	assert.True(t, ok, "document re-added after its delete is kept")

	ok, err = a.Has("en_3")
	require.NoError(t, err)
	assert.False(t, ok, "document deleted after its add is removed")
}
