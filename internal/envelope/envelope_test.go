package envelope

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/oactl/internal/log"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestNormalizeShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantItems string
		wantTotal int
		wantShape string
	}{
		{"code envelope", `{"code":1,"results":["a","b"],"total_count":2}`, `["a","b"]`, 2, "code-results-total_count"},
		{"results with count", `{"results":["a"],"count":5}`, `["a"]`, 5, "results-count"},
		{"results with total", `{"results":["a"],"total":7}`, `["a"]`, 7, "results-count"},
		{"data without total", `{"data":["a","b","c"]}`, `["a","b","c"]`, 0, "data"},
		{"data with total", `{"data":["a"],"total":"9"}`, `["a"]`, 9, "data"},
		{"data wrapping results", `{"data":{"results":["a"],"count":3}}`, `["a"]`, 3, "data"},
		{"bare array", `["a","b"]`, `["a","b"]`, 2, "array"},
		{"empty results still matches", `{"results":[],"count":0}`, `[]`, 0, "results-count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Normalize(decode(t, tt.body), log.Discard())
			want := decode(t, tt.wantItems)
			assert.Equal(t, want, page.Items)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantShape, page.Shape)
		})
	}
}

func TestNormalizePrecedence(t *testing.T) {
	// Matches (a), (b) and (c); (a) must win.
	body := decode(t, `{"code":1,"results":["a"],"total_count":4,"count":99,"data":["z"]}`)
	page := Normalize(body, log.Discard())
	assert.Equal(t, []any{"a"}, page.Items)
	assert.Equal(t, 4, page.Total)

	// Matches (b) and (c); (b) must win.
	body = decode(t, `{"results":["b"],"count":2,"data":["z"]}`)
	page = Normalize(body, log.Discard())
	assert.Equal(t, []any{"b"}, page.Items)
	assert.Equal(t, 2, page.Total)
}

func TestNormalizeUnknownWarns(t *testing.T) {
	for _, body := range []string{`{}`, `"text"`, `null`, `{"detail":"x"}`} {
		var buf bytes.Buffer
		logger := log.New(log.Config{Level: log.LevelWarn, Format: log.FormatText, Output: log.NewOutput(&buf)})

		page := Normalize(decode(t, body), logger)
		assert.Equal(t, []any{}, page.Items)
		assert.Equal(t, 0, page.Total)
		assert.Equal(t, "", page.Shape)
		assert.Contains(t, buf.String(), "unrecognized list response shape")
	}
}

func TestDedupeKeepsFirstByID(t *testing.T) {
	items := decode(t, `[{"id":1,"v":"a"},{"id":2,"v":"b"},{"id":1,"v":"c"}]`).([]any)

	got := Dedupe(items)

	assert.Equal(t, decode(t, `[{"id":1,"v":"a"},{"id":2,"v":"b"}]`), got)
}

func TestDedupeWithoutID(t *testing.T) {
	items := decode(t, `[{"title":"x","n":1},{"n":1,"title":"x"},{"title":"y"},{"id":"1"},{"id":1}]`).([]any)

	got := Dedupe(items)

	require.Len(t, got, 4, "equal objects collapse regardless of key order; 1 and \"1\" stay distinct")
	assert.Equal(t, "y", AsRecord(got[1])["title"])
}

func TestConversions(t *testing.T) {
	assert.Equal(t, 3, AsInt("3"))
	assert.Equal(t, 0, AsInt("x"))
	assert.Equal(t, 2, AsInt(2.9))
	assert.Equal(t, "12", AsString(float64(12)))
	assert.Equal(t, "", AsString(true))
	assert.Nil(t, AsList("nope"))

	r := decode(t, `{"attendance_type":{"name":"sick leave"}}`).(map[string]any)
	assert.Equal(t, "sick leave", Path(r, "attendance_type", "name"))
	assert.Nil(t, Path(r, "missing", "name"))

	assert.Len(t, Records([]any{map[string]any{"a": 1}, "skip", 3}), 1)
}

func TestAsRecord(t *testing.T) {
	decoded := decode(t, `{"id":1}`)
	assert.Equal(t, Record{"id": float64(1)}, AsRecord(decoded))
	assert.Equal(t, Record{"a": "b"}, AsRecord(Record{"a": "b"}))
	assert.Nil(t, AsRecord([]any{"x"}))
	assert.Nil(t, AsRecord(nil))
}
