package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *apptype.Graph {
	return &apptype.Graph{
		Entities: []apptype.Entity{
			{Name: "Bob", EntityType: "Person", Observations: []string{"likes dogs"}},
			{Name: "Alice", EntityType: "Person", Observations: []string{"likes cats", "emoji 🐙✨ <tag> & \"quotes\""}},
			{Name: "Empty", EntityType: "Thing", Observations: []string{}},
		},
		Relations: []apptype.Relation{
			{From: "Alice", To: "Bob", RelationType: "knows"},
			{From: "Bob", To: "Ghost", RelationType: "haunted_by"},
		},
	}
}

// assertSameGraph compares entities by name and relations by triple, ignoring order.
func assertSameGraph(t *testing.T, want, got *apptype.Graph) {
	t.Helper()
	byName := func(es []apptype.Entity) []apptype.Entity {
		out := append([]apptype.Entity(nil), es...)
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	}
	triples := func(rs []apptype.Relation) []apptype.Relation {
		out := append([]apptype.Relation(nil), rs...)
		sort.Slice(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.From != b.From {
				return a.From < b.From
			}
			if a.To != b.To {
				return a.To < b.To
			}
			return a.RelationType < b.RelationType
		})
		return out
	}
	assert.Equal(t, byName(want.Entities), byName(got.Entities))
	assert.Equal(t, triples(want.Relations), triples(got.Relations))
}

func TestFileStoreMissingFileIsEmptyGraph(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope", "memory.json"))
	g, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, g.Entities)
	assert.Empty(t, g.Relations)
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "memory.json")
	s := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleGraph()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assertSameGraph(t, sampleGraph(), got)

	// entities are written before relations, one record per line, no temp files left behind
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `{"type":"entity","name":"Bob","entityType":"Person","observations":["likes dogs"]}`)
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.Save(ctx, apptype.NewGraph()))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Entities)
}

func TestFileStoreSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	data := "\n" +
		`{"type":"entity","name":"A","entityType":"T","observations":["x"]}` + "\n\n   \n" +
		`{"type":"relation","from":"A","to":"B","relationType":"r"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	g, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, g.Entities, 1)
	assert.Equal(t, []string{"x"}, g.Entities[0].Observations)
	assert.Equal(t, []apptype.Relation{{From: "A", To: "B", RelationType: "r"}}, g.Relations)
}

func TestFileStoreMalformedRecords(t *testing.T) {
	cases := map[string]string{
		"bad json":     `{"type":"entity","name":"A"` + "\n",
		"unknown type": `{"type":"entity","name":"A","entityType":"T","observations":[]}` + "\n" + `{"type":"widget"}` + "\n",
		"wrong shape":  `{"type":"entity","name":"A","entityType":"T","observations":"x"}` + "\n",
		"not object":   `[1,2]` + "\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "memory.json")
			require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
			_, err := NewFileStore(path).Load(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, apptype.ErrMalformedStore))
		})
	}
}

func TestFileStoreMalformedReportsLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	data := `{"type":"entity","name":"A","entityType":"T","observations":[]}` + "\n\n" + `oops` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 3")
}

func TestFileStoreHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewFileStore(filepath.Join(t.TempDir(), "memory.json"))
	assert.ErrorIs(t, s.Save(ctx, sampleGraph()), context.Canceled)
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func libsqlURL(t *testing.T) string {
	t.Helper()
	return "file:" + filepath.Join(t.TempDir(), "memory.db")
}

func TestLibSQLStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLibSQLStore(ctx, libsqlURL(t), "")
	require.NoError(t, err)
	defer s.Close()

	g, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, g.Entities)

	require.NoError(t, s.Save(ctx, sampleGraph()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assertSameGraph(t, sampleGraph(), got)

	smaller := &apptype.Graph{Entities: []apptype.Entity{{Name: "Only", EntityType: "T", Observations: []string{"o"}}}}
	require.NoError(t, s.Save(ctx, smaller))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assertSameGraph(t, smaller, got)
}

func TestLibSQLStoreMalformedRow(t *testing.T) {
	ctx := context.Background()
	url := libsqlURL(t)
	s, err := NewLibSQLStore(ctx, url, "")
	require.NoError(t, err)
	defer s.Close()

	db, err := sql.Open("libsql", url)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.ExecContext(ctx, "INSERT INTO graph_records (seq, record) VALUES (1, ?)", `{"type":"mystery"}`)
	require.NoError(t, err)

	_, err = s.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apptype.ErrMalformedStore))
}

func TestWithAuthToken(t *testing.T) {
	assert.Equal(t, "file:./memory.db", withAuthToken("file:./memory.db", "secret"))
	assert.Equal(t, "libsql://db.example.io", withAuthToken("libsql://db.example.io", ""))
	assert.Equal(t, "libsql://db.example.io?authToken=s%2Fx", withAuthToken("libsql://db.example.io", "s/x"))
}
