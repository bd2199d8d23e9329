package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_PreservesInsertionOrder(t *testing.T) {
	doc := NewBuilder().
		Set(KeyObjectID, "en_abc").
		Set("zeta", "z").
		Set("alpha", int64(1)).
		Set("mid", 2.5).
		Freeze()

	assert.Equal(t, []string{KeyObjectID, "zeta", "alpha", "mid"}, doc.Keys())

	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"objectID":"en_abc","zeta":"z","alpha":1,"mid":2.5}`, string(b))
}

func TestBuilder_SetExistingKeyKeepsPosition(t *testing.T) {
	doc := NewBuilder().Set("a", "1").Set("b", "2").Set("a", "3").Freeze()

	assert.Equal(t, []string{"a", "b"}, doc.Keys())
	v, _ := doc.String("a")
	assert.Equal(t, "3", v)
}

func TestBuilder_SetIfAbsent(t *testing.T) {
	b := NewBuilder().Set(KeyID, "reserved")

	assert.False(t, b.SetIfAbsent(KeyID, "other"))
	assert.True(t, b.SetIfAbsent("title", "t"))

	doc := b.Freeze()
	id, _ := doc.String(KeyID)
	assert.Equal(t, "reserved", id)
}

func TestBuilder_DeleteAndAppend(t *testing.T) {
	b := NewBuilder().Set("a", "1").Set("b", "2")
	b.Delete("a").Append(KeyTags, "x").Append(KeyTags, "y")

	doc := b.Freeze()
	assert.Equal(t, []string{"b", KeyTags}, doc.Keys())
	assert.Equal(t, []string{"x", "y"}, doc.Strings(KeyTags))
	assert.False(t, doc.Has("a"))
}

func TestFreeze_IsIsolatedFromBuilder(t *testing.T) {
	b := NewBuilder().Append(KeyTags, "one")
	frozen := b.Freeze()

	b.Append(KeyTags, "two").Set("late", "x")

	assert.Equal(t, []string{"one"}, frozen.Strings(KeyTags))
	assert.False(t, frozen.Has("late"))
}

func TestEdit_DoesNotMutateOriginal(t *testing.T) {
	orig := NewBuilder().Set("a", "1").Freeze()
	edited := orig.Edit().Set("b", "2").Delete("a").Freeze()

	assert.True(t, orig.Has("a"))
	assert.False(t, orig.Has("b"))
	assert.Equal(t, []string{"b"}, edited.Keys())
}

func TestMarshalJSON_NullAndIntegers(t *testing.T) {
	doc := NewBuilder().Set("n", nil).Set("i", 10).Freeze()

	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"n":null,"i":10}`, string(b))

	v, _ := doc.Get("i")
	assert.IsType(t, int64(0), v)
}

func TestIsReserved(t *testing.T) {
	for _, k := range []string{KeyObjectID, KeyID, KeyName, KeyFullPath, KeyLanguage, KeyTemplate, KeyTags} {
		assert.True(t, IsReserved(k), k)
	}
	assert.False(t, IsReserved("title"))
}

func TestMap(t *testing.T) {
	doc := NewBuilder().Set(KeyObjectID, "en_1").Set("price", 1.5).Freeze()

	m := doc.Map()
	assert.Equal(t, map[string]any{"objectID": "en_1", "price": 1.5}, m)
	assert.Equal(t, "en_1", doc.ObjectID())
}
