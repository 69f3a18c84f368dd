package timeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "name": "office",
  "nodes": [
    {"id": "A", "label": "alice", "intervals": [{"start": 0, "end": 10}]},
    {"id": "B", "intervals": [{"start": 5, "end": 15}]}
  ],
  "edges": [
    {
      "id": "AB", "source": "A", "target": "B",
      "intervals": [{"start": 5, "end": 10}],
      "attributes": {"weight": [{"start": 5, "end": 10, "value": 2.5}]}
    }
  ]
}`

const sampleYAML = `name: office
directed: false
nodes:
  - id: A
    label: alice
    intervals:
      - {start: 0, end: 10}
  - id: B
    intervals:
      - {start: 5, end: 15}
edges:
  - id: AB
    source: A
    target: B
    intervals:
      - {start: 5, end: 10}
    attributes:
      weight:
        - {start: 5, end: 10, value: 3, off: 0}
`

func newTestLoader(t *testing.T, opts ...LoaderOption) *Loader {
	t.Helper()

	l, err := NewLoader(opts...)
	require.NoError(t, err)

	return l
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	doc, err := newTestLoader(t).Load(strings.NewReader(sampleJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "office", doc.Name)
	assert.True(t, doc.IsDirected())
	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "alice", doc.Nodes[0].Label)

	start, end := doc.Nodes[1].Intervals[0].Bounds()
	assert.InDelta(t, 5.0, start, 0)
	assert.InDelta(t, 15.0, end, 0)

	facts := doc.Edges[0].Attributes["weight"]
	require.Len(t, facts, 1)
	assert.InDelta(t, 2.5, facts[0].Value, 0)
	assert.Nil(t, facts[0].Off)
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	doc, err := newTestLoader(t).Load(strings.NewReader(sampleYAML), FormatYAML)
	require.NoError(t, err)

	assert.False(t, doc.IsDirected())
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "B", doc.Edges[0].Target)

	fact := doc.Edges[0].Attributes["weight"][0]
	assert.Equal(t, 3, fact.Value)
	assert.Equal(t, 0, fact.Off)
}

func TestLoad_SchemaViolation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown field":  `{"nodes": [{"id": "A", "colour": "red"}]}`,
		"missing id":     `{"nodes": [{"label": "A"}]}`,
		"missing nodes":  `{"edges": []}`,
		"string bound":   `{"nodes": [{"id": "A", "intervals": [{"start": "0"}]}]}`,
		"edge no target": `{"nodes": [{"id": "A"}], "edges": [{"id": "E", "source": "A"}]}`,
	}

	l := newTestLoader(t)

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := l.Load(strings.NewReader(input), FormatJSON)
			require.ErrorIs(t, err, ErrSchemaViolation)
		})
	}
}

func TestLoad_WithoutValidation(t *testing.T) {
	t.Parallel()

	l := newTestLoader(t, WithValidation(false))

	doc, err := l.Load(strings.NewReader(`{"nodes": [{"id": "A", "colour": "red"}]}`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
}

func TestLoad_Malformed(t *testing.T) {
	t.Parallel()

	_, err := newTestLoader(t).Load(strings.NewReader(`{"nodes": [`), FormatJSON)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrSchemaViolation)

	_, err = newTestLoader(t).Load(strings.NewReader(`{}`), Format("toml"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path       string
		format     Format
		compressed bool
	}{
		{"net.json", FormatJSON, false},
		{"dir/net.YAML", FormatYAML, false},
		{"net.yml", FormatYAML, false},
		{"net.json.lz4", FormatJSON, true},
		{"/tmp/net.yaml.lz4", FormatYAML, true},
	}

	for _, tt := range tests {
		format, compressed, err := DetectFormat(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.format, format, tt.path)
		assert.Equal(t, tt.compressed, compressed, tt.path)
	}

	for _, path := range []string{"net.txt", "net.lz4", "net"} {
		_, _, err := DetectFormat(path)
		require.ErrorIs(t, err, ErrUnsupportedFormat, path)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	plain := filepath.Join(dir, "net.yaml")
	require.NoError(t, os.WriteFile(plain, []byte(sampleYAML), 0o600))

	compressed := filepath.Join(dir, "net.json.lz4")
	writeLZ4(t, compressed, sampleJSON)

	l := newTestLoader(t)

	for _, path := range []string{plain, compressed} {
		doc, err := l.LoadFile(path)
		require.NoError(t, err, path)
		assert.Len(t, doc.Nodes, 2, path)
		assert.Len(t, doc.Edges, 1, path)
	}

	_, err := l.LoadFile(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	schema := Schema()
	assert.True(t, json.Valid(schema))

	schema[0] = 'x'
	assert.True(t, json.Valid(Schema()), "Schema returns a copy")
}

func writeLZ4(t *testing.T, path, content string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	defer f.Close()

	w := lz4.NewWriter(f)

	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}
