package fieldtype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	c := NewConverter(Map{
		Types: map[string]Kind{
			"Single-Line Text": String,
			"number":           Number,
			"decimal":          Number,
			"integer":          Integer,
			"rich text":        Raw,
		},
		NumericReaders: []string{"NUMBER"},
	})

	tests := []struct {
		typeName string
		want     Kind
	}{
		{"single-line text", String},
		{"Number", Integer},
		{"decimal", Float},
		{"integer", Integer},
		{"Rich Text", Raw},
		{"unregistered", String},
		{"", String},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Resolve(tt.typeName))
		})
	}
}

func TestConvert(t *testing.T) {
	c := NewConverter(Map{})

	tests := []struct {
		name    string
		raw     string
		kind    Kind
		want    any
		wantErr bool
	}{
		{name: "string trimmed", raw: "  test  ", kind: String, want: "test"},
		{name: "string interior kept", raw: " a  b ", kind: String, want: "a  b"},
		{name: "empty string stays empty", raw: "   ", kind: String, want: ""},
		{name: "integer", raw: "10", kind: Integer, want: int64(10)},
		{name: "integer with spaces", raw: " 42 ", kind: Integer, want: int64(42)},
		{name: "integer rejects fraction", raw: "1.5", kind: Integer, wantErr: true},
		{name: "float", raw: "123.456", kind: Float, want: 123.456},
		{name: "float rejects comma separator", raw: "123,456", kind: Float, wantErr: true},
		{name: "float rejects text", raw: "abc", kind: Float, wantErr: true},
		{name: "raw untouched", raw: "  <p>x</p> ", kind: Raw, want: "  <p>x</p> "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(tt.raw, tt.kind)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertField_IntegerReader(t *testing.T) {
	c := NewConverter(Map{
		Types:          map[string]Kind{"number": Number},
		NumericReaders: []string{"number"},
	})

	v, kind, err := c.ConvertField("number", "10")
	require.NoError(t, err)
	assert.Equal(t, Integer, kind)
	assert.Equal(t, int64(10), v)
}

func TestConvertField_FloatWithoutReader(t *testing.T) {
	c := NewConverter(Map{
		Types: map[string]Kind{"number": Number},
	})

	v, kind, err := c.ConvertField("number", "123.456")
	require.NoError(t, err)
	assert.Equal(t, Float, kind)
	assert.Equal(t, 123.456, v)
}

func TestConvertField_IntegerReaderFraction(t *testing.T) {
	c := NewConverter(Map{
		Types:          map[string]Kind{"number": Number, "count": Integer},
		NumericReaders: []string{"number"},
	})

	v, kind, err := c.ConvertField("number", "123.456")
	require.NoError(t, err)
	assert.Equal(t, Float, kind)
	assert.Equal(t, 123.456, v)

	// Explicit Integer kinds stay strict.
	_, _, err = c.ConvertField("count", "1.5")
	assert.ErrorIs(t, err, ErrConversion)
}

func TestConvertField_Error(t *testing.T) {
	c := NewConverter(Map{
		Types:          map[string]Kind{"number": Number},
		NumericReaders: []string{"number"},
	})

	_, _, err := c.ConvertField("number", "ten")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConversion))

	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "ten", convErr.Value)
	assert.Equal(t, Integer, convErr.Kind)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"string": String, "Text": String, "integer": Integer,
		"float": Float, "raw": Raw, "number": Number,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("date")
	assert.Error(t, err)
}
