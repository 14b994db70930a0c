package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestSanitize_StripsOperatorKeys(t *testing.T) {
	doc := decodeJSON(t, `{
		"title": {"$gt": ""},
		"$where": "sleep(1000)",
		"profile.role": "admin",
		"tags": [{"$ne": 1, "ok": true}],
		"year": 1999
	}`)

	out, n := Sanitize(doc)
	assert.Equal(t, 4, n)
	assert.Equal(t, decodeJSON(t, `{"title": {}, "tags": [{"ok": true}], "year": 1999}`), out)
}

func TestSanitize_LeavesCleanInputAlone(t *testing.T) {
	doc := decodeJSON(t, `{"title": "Price is $5", "nested": {"a": [1, "b"]}}`)
	want := decodeJSON(t, `{"title": "Price is $5", "nested": {"a": [1, "b"]}}`)

	out, n := Sanitize(doc)
	assert.Zero(t, n)
	assert.Equal(t, want, out)
}

func TestSanitize_Scalars(t *testing.T) {
	out, n := Sanitize("$gt")
	assert.Equal(t, "$gt", out)
	assert.Zero(t, n)
}

func TestUnsafeKey(t *testing.T) {
	assert.True(t, UnsafeKey("$ne"))
	assert.True(t, UnsafeKey("a.b"))
	assert.False(t, UnsafeKey("price$"))
	assert.False(t, UnsafeKey("title"))
}
