package source

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeYAML = `
id: 0de95ae4-41ab-4d01-9eb0-67441b7c2450
path: /sitecore/content/home
name: home
language: en
version: 2
database: master
templateId: "{76036F5E-CBCE-46D1-AF0A-4143F9B557AA}"
fields:
  - name: Title
    type: single-line text
    value: Welcome
  - name: Count
    type: number
    value: "10"
ancestors:
  - id: 110d559f-dea5-42ea-9c1c-8a5df7e70ef9
    name: content
    path: /sitecore/content
`

const productsJSON = `[
  {"id": "4f0c3b2a-2d1e-4c5b-9a8f-7e6d5c4b3a21", "path": "/sitecore/content/home/products", "name": "products", "language": "en"},
  {"id": "4f0c3b2a-2d1e-4c5b-9a8f-7e6d5c4b3a21", "path": "/sitecore/content/home/products", "name": "produkte", "language": "de"}
]`

func TestDecode_SingleRecord(t *testing.T) {
	recs, err := Decode([]byte(homeYAML))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, uuid.MustParse("0de95ae4-41ab-4d01-9eb0-67441b7c2450"), rec.ID)
	assert.Equal(t, "/sitecore/content/home", rec.Path)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, "{76036F5E-CBCE-46D1-AF0A-4143F9B557AA}", rec.TemplateID)
	require.Len(t, rec.Fields, 2)
	assert.Equal(t, "Count", rec.Fields[1].Name)
	assert.Equal(t, "10", rec.Fields[1].Value)
	require.Len(t, rec.Ancestors, 1)
	assert.Equal(t, "content", rec.Ancestors[0].Name)
}

func TestDecode_JSONList(t *testing.T) {
	recs, err := Decode([]byte(productsJSON))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "de", recs[1].Language)
}

func TestDecode_Errors(t *testing.T) {
	recs, err := Decode([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = Decode([]byte("just a string"))
	assert.Error(t, err)

	_, err = Decode([]byte("id: not-a-uuid"))
	assert.Error(t, err)
}

func TestLoader_LoadDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/records/home.yaml", []byte(homeYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/records/nested/products.json", []byte(productsJSON), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/records/README.md", []byte("# ignored"), 0o644))

	l := NewLoader(fs)
	recs, err := l.LoadDir("/records")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "/sitecore/content/home", recs[0].Path)
	assert.Equal(t, "de", recs[1].Language)
	assert.Equal(t, "en", recs[2].Language)

	recs, err = l.Load("/records/home.yaml")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestLoader_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/records/bad.yaml", []byte("fields: [unclosed"), 0o644))

	l := NewLoader(fs)
	_, err := l.Load("/missing")
	assert.Error(t, err)

	_, err = l.LoadDir("/records")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
