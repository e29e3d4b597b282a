package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebula-nodeconf/pkg/model"
)

func sampleRuns() []model.Run {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return []model.Run{
		{ID: "a", CIDR: "10.10.1.1/24", Role: model.RoleHost, Ports: []string{"31800", "3000"}, OutputPath: "/opt/nebula/node.yml", Status: model.RunSuccess, StartedAt: base, FinishedAt: base.Add(time.Second)},
		{ID: "b", CIDR: "10.10.1.2/24", Role: model.RoleLighthouse, OutputPath: "/opt/nebula/node.yml", Status: model.RunFailed, Detail: "write failed", StartedAt: base.Add(time.Minute)},
		{ID: "c", CIDR: "10.10.1.3/24", Role: model.RoleHost, Status: model.RunSuccess, StartedAt: base.Add(2 * time.Minute)},
	}
}

func exerciseStore(t *testing.T, s RunStore) {
	t.Helper()
	for _, r := range sampleRuns() {
		require.NoError(t, s.SaveRun(r))
	}

	all, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, []string{"31800", "3000"}, all[2].Ports)
	assert.True(t, all[1].FinishedAt.IsZero())
	assert.Equal(t, "write failed", all[1].Detail)

	latest, err := s.ListRuns(1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "c", latest[0].ID)

	// saving the same id again replaces the record
	updated := sampleRuns()[0]
	updated.Status = model.RunFailed
	require.NoError(t, s.SaveRun(updated))
	all, err = s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.RunFailed, all[2].Status)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	// reopening keeps the history
	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	assert.True(t, runs[0].StartedAt.Equal(sampleRuns()[2].StartedAt))
}
