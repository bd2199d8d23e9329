package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/contentsearch/pkg/record"
	"github.com/hashicorp-forge/contentsearch/pkg/session"
)

func TestDecode(t *testing.T) {
	ev, err := Decode([]byte(`{
		"type": "update",
		"record": {
			"id": "{0DE95AE4-41AB-4D01-9EB0-67441B7C2450}",
			"path": "/sitecore/content/home/products",
			"name": "products",
			"language": "en",
			"version": "3",
			"database": "master",
			"fields": [
				{"name": "Title", "type": "Single-Line Text", "value": "Products"},
				{"name": "Price", "type": "Number", "value": 12.5}
			],
			"ancestors": [
				{"id": "11111111-1111-1111-1111-111111111111", "name": "home", "path": "/sitecore/content/home"}
			]
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, session.EventUpdate, ev.Type)
	require.NotNil(t, ev.Record)
	assert.Equal(t, uuid.MustParse("0de95ae4-41ab-4d01-9eb0-67441b7c2450"), ev.Record.ID)
	assert.Equal(t, 3, ev.Record.Version)
	require.Len(t, ev.Record.Fields, 2)
	assert.Equal(t, "12.5", ev.Record.Fields[1].Value)
	require.Len(t, ev.Record.Ancestors, 1)
	assert.Equal(t, "home", ev.Record.Ancestors[0].Name)
}

func TestDecode_DeleteByObjectID(t *testing.T) {
	ev, err := Decode([]byte(`{"type": "delete", "objectId": "en_0de95ae4"}`))
	require.NoError(t, err)
	assert.Equal(t, session.EventDelete, ev.Type)
	assert.Equal(t, "en_0de95ae4", ev.ObjectID)
	assert.Nil(t, ev.Record)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{"invalid json", `{`, "failed to unmarshal event"},
		{"unknown type", `{"type": "move", "objectId": "x"}`, `unknown event type "move"`},
		{"add without record", `{"type": "add"}`, "add event requires a record"},
		{"delete without key", `{"type": "delete"}`, "delete event requires a record"},
		{"bad id", `{"type": "add", "record": {"id": "not-a-uuid"}}`, "failed to decode record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	rec := &record.Record{
		ID:       uuid.MustParse("0de95ae4-41ab-4d01-9eb0-67441b7c2450"),
		Path:     "/sitecore/content/home",
		Language: "en",
		Version:  2,
		Fields:   []record.Field{{Name: "Title", Value: "Home"}},
	}

	data, err := Encode(session.Event{Type: session.EventAdd, Record: rec})
	require.NoError(t, err)

	ev, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, session.EventAdd, ev.Type)
	assert.Equal(t, rec, ev.Record)
}
