package computed

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/contentsearch/pkg/record"
)

var (
	rootID    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	contentID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	homeID    = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func nestedRecord() *record.Record {
	return &record.Record{
		ID:   uuid.MustParse("44444444-4444-4444-4444-444444444444"),
		Path: "/sitecore/content/home/products",
		Name: "products",
		Ancestors: []record.Ancestor{
			{ID: homeID, Name: "home", Path: "/sitecore/content/home"},
			{ID: contentID, Name: "content", Path: "/sitecore/content"},
			{ID: rootID, Name: "sitecore", Path: "/sitecore"},
		},
	}
}

func TestParents_OneAncestor(t *testing.T) {
	rec := &record.Record{
		ID:        uuid.New(),
		Path:      "/home/child",
		Ancestors: []record.Ancestor{{ID: homeID, Name: "home", Path: "/home"}},
	}

	v, err := Parents(context.Background(), rec, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{homeID.String()}, v)
}

func TestParents_Params(t *testing.T) {
	ctx := context.Background()
	rec := nestedRecord()

	tests := []struct {
		name   string
		params map[string]string
		want   []string
	}{
		{"all", nil, []string{homeID.String(), contentID.String(), rootID.String()}},
		{"max depth", map[string]string{"max_depth": "2"}, []string{homeID.String(), contentID.String()}},
		{"stop at crawler root", map[string]string{"stop_at_path": "/sitecore/content/"}, []string{homeID.String()}},
		{"max depth zero", map[string]string{"max_depth": "0"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parents(ctx, rec, record.EmbeddedAncestors, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	_, err := Parents(ctx, rec, nil, map[string]string{"max_depth": "many"})
	assert.Error(t, err)
}

func TestParents_LookupError(t *testing.T) {
	lookup := record.AncestorLookupFunc(func(context.Context, *record.Record) ([]record.Ancestor, error) {
		return nil, errors.New("tree unavailable")
	})

	_, err := Parents(context.Background(), nestedRecord(), lookup, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tree unavailable")
}

func TestParentNamesAndDepth(t *testing.T) {
	ctx := context.Background()
	rec := nestedRecord()

	names, err := ParentNames(ctx, rec, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "content", "sitecore"}, names)

	depth, err := Depth(ctx, rec, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), depth)
}

func TestSmallCreatedDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{name: "sitecore format", value: "20230415T101500Z", want: 20230415},
		{name: "sitecore without zone", value: "20191231T235959", want: 20191231},
		{name: "rfc3339", value: "2021-06-01T08:00:00Z", want: 20210601},
		{name: "iso date", value: "2020-02-29", want: 20200229},
		{name: "garbage", value: "not a date", wantErr: true},
		{name: "empty", value: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &record.Record{Fields: []record.Field{{Name: "__Created", Value: tt.value}}}
			v, err := SmallCreatedDate(context.Background(), rec, nil, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestSmallCreatedDate_FieldParam(t *testing.T) {
	rec := &record.Record{Fields: []record.Field{{Name: "published", Value: "20240102T000000Z"}}}

	v, err := SmallCreatedDate(context.Background(), rec, nil, map[string]string{"field": "published"})
	require.NoError(t, err)
	assert.Equal(t, int64(20240102), v)

	_, err = SmallCreatedDate(context.Background(), rec, nil, nil)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"depth", "parent_names", "parents", "small_created_date", "template_name"}, r.Names())

	fn, ok := r.Lookup("template_name")
	require.True(t, ok)
	v, err := fn(context.Background(), &record.Record{TemplateName: "Product"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Product", v)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Error(t, r.Register("parents", Parents))
	assert.Error(t, r.Register("", Parents))
	assert.Error(t, r.Register("nil", nil))
	assert.Panics(t, func() { r.MustRegister("depth", Depth) })
}
