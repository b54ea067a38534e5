package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/saferestart/infrastructure/config"
)

func newTestConfigRepository(t *testing.T) *JSONConfigRepository {
	t.Helper()
	return NewJSONConfigRepositoryAt(filepath.Join(t.TempDir(), "saferestart", "config.json"))
}

func TestJSONConfigRepository_SaveAndLoad(t *testing.T) {
	repo := newTestConfigRepository(t)

	exists, err := repo.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	cfg := config.DefaultConfig()
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "s3cret"
	cfg.Flag.Path = "/srv/state/restart.pending"
	cfg.Prometheus.RemoteWriteURL = "http://prometheus:9090/api/v1/write"

	require.NoError(t, repo.Save(cfg))

	info, err := os.Stat(repo.GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(repo.GetConfigPath()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "admin", loaded.Admin.Username)
	assert.Equal(t, "s3cret", loaded.Admin.Password)
	assert.Equal(t, "/srv/state/restart.pending", loaded.Flag.Path)
	assert.Equal(t, "http://prometheus:9090/api/v1/write", loaded.Prometheus.RemoteWriteURL)
}

func TestJSONConfigRepository_LoadMissing(t *testing.T) {
	repo := newTestConfigRepository(t)

	cfg, err := repo.Load()
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestJSONConfigRepository_LoadInvalidJSON(t *testing.T) {
	repo := newTestConfigRepository(t)
	require.NoError(t, repo.EnsureConfigDir())
	require.NoError(t, os.WriteFile(repo.GetConfigPath(), []byte("{not json"), 0600))

	_, err := repo.Load()
	assert.Error(t, err)
}

func TestJSONConfigRepository_LoadTightensPermissions(t *testing.T) {
	repo := newTestConfigRepository(t)
	require.NoError(t, repo.EnsureConfigDir())
	require.NoError(t, os.WriteFile(repo.GetConfigPath(), []byte(`{"version":1}`), 0644))

	_, err := repo.Load()
	require.NoError(t, err)

	info, err := os.Stat(repo.GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestJSONConfigRepository_SaveRejectsInvalid(t *testing.T) {
	repo := newTestConfigRepository(t)

	cfg := config.DefaultConfig()
	cfg.Confirm.PollIntervalSec = 0

	assert.Error(t, repo.Save(cfg))
	assert.Error(t, repo.Save(nil))

	exists, err := repo.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestJSONConfigRepository_BackupRotation(t *testing.T) {
	repo := newTestConfigRepository(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < 8; i++ {
		require.NoError(t, repo.Save(config.DefaultConfig()))
	}

	backups, err := filepath.Glob(repo.GetConfigPath() + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, configBackupsKept)
	assert.NotContains(t, backups, repo.GetConfigPath()+".backup.20260301-000100")
}
