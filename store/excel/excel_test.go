package excel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vks.la/patrol/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "patrol.xlsx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTable("Sites", []string{"code", "nameEN", "timestamp"}))
	require.NoError(t, s.AppendRow(ctx, "Sites", store.Record{"code": "VKS-A-001", "nameEN": "VKS25-061 Warehouse A"}))
	require.NoError(t, s.AppendRow(ctx, "Sites", store.Record{"code": "VKS-A-002", "nameEN": "Warehouse B"}))

	rows, err := s.ReadAll(ctx, "Sites")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "VKS-A-001", rows[0].Get("code"))
	assert.Equal(t, "VKS-A-002", rows[1].Get("code"))
	assert.NotEmpty(t, rows[0].Get("timestamp"))
}

func TestEnsureTableIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTable("Guards", []string{"empId", "name"}))
	require.NoError(t, s.AppendRow(ctx, "Guards", store.Record{"empId": "E001", "name": "Khamla"}))
	require.NoError(t, s.EnsureTable("Guards", []string{"empId", "name"}))

	rows, err := s.ReadAll(ctx, "Guards")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFindAndUpdateRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTable("Scans", []string{"id", "photo"}))
	require.NoError(t, s.AppendRow(ctx, "Scans", store.Record{"id": "s1"}))
	require.NoError(t, s.AppendRow(ctx, "Scans", store.Record{"id": "s2"}))

	found, err := s.FindAndUpdateRow(ctx, "Scans",
		func(r store.Record) bool { return r.Get("id") == "s2" },
		store.Record{"photo": "https://cdn.example.com/x.jpg"})
	require.NoError(t, err)
	assert.True(t, found)

	rows, err := s.ReadAll(ctx, "Scans")
	require.NoError(t, err)
	assert.Empty(t, rows[0].Get("photo"))
	assert.Equal(t, "https://cdn.example.com/x.jpg", rows[1].Get("photo"))
}

func TestReadMissingTable(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ReadAll(context.Background(), "Nope")
	assert.Error(t, err)
}
