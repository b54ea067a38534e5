package impl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/infrastructure/config"
	infraRepo "github.com/ca-srg/saferestart/infrastructure/repository"
)

func writeConfigFile(t *testing.T, content string) *infraRepo.JSONConfigRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return infraRepo.NewJSONConfigRepositoryAt(path)
}

func TestConfigService_LoadsDefaultsWithoutFile(t *testing.T) {
	repo := infraRepo.NewJSONConfigRepositoryAt(filepath.Join(t.TempDir(), "config.json"))

	svc, err := NewConfigService(repo, newTestLogger())
	require.NoError(t, err)

	cfg := svc.GetConfig()
	assert.Equal(t, "/usr/local/bin/fmsadmin", cfg.Admin.ExecutablePath)
	assert.Equal(t, 5, cfg.Confirm.PollIntervalSec)

	_, sources := svc.GetConfigWithSources()
	assert.Equal(t, config.SourceDefault, sources["Admin.ExecutablePath"])
}

func TestConfigService_LayersJSONAndEnv(t *testing.T) {
	repo := writeConfigFile(t, `{
  "admin": {"username": "admin", "password": "from-json", "closed_marker": "Closed"},
  "confirm": {"timeout_seconds": 60}
}`)
	t.Setenv("SAFERESTART_ADMIN_PASSWORD", "from-env")

	svc, err := NewConfigService(repo, newTestLogger())
	require.NoError(t, err)

	cfg, sources := svc.GetConfigWithSources()
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "from-env", cfg.Admin.Password)
	assert.Equal(t, "Closed", cfg.Admin.ClosedMarker)
	assert.Equal(t, 60, cfg.Confirm.TimeoutSec)
	assert.Equal(t, config.SourceJSONFile, sources["Admin.Username"])
	assert.Equal(t, config.SourceEnvironment, sources["Admin.Password"])
}

func TestConfigService_InvalidConfigIsConfigError(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "malformed json", content: "{"},
		{name: "invalid value", content: `{"logging": {"level": "verbose"}}`},
		{name: "invalid env", content: `{}`, env: map[string]string{"SAFERESTART_CONFIRM_TIMEOUT_SECONDS": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewConfigService(writeConfigFile(t, tt.content), newTestLogger())

			require.Error(t, err)
			assert.Equal(t, domain.ExitConfigError, domain.ExitStatusOf(err))
		})
	}
}

func TestConfigService_ExportConfigMasksSecrets(t *testing.T) {
	repo := writeConfigFile(t, `{
  "admin": {"username": "admin", "password": "s3cret"},
  "prometheus": {"remote_write_url": "http://prom/api/v1/write", "remote_write_username": "u", "remote_write_password": "p4ss"},
  "logging": {"promtail": {"url": "http://loki:3100/loki/api/v1/push", "password": "lokipass"}}
}`)
	svc, err := NewConfigService(repo, newTestLogger())
	require.NoError(t, err)

	exported := svc.ExportConfig()

	admin := exported["admin"].(map[string]interface{})
	assert.Equal(t, "admin", admin["username"])
	assert.Equal(t, "****", admin["password"])

	prom := exported["prometheus"].(map[string]interface{})
	assert.Equal(t, "****", prom["remote_write_password"])

	promtail := exported["logging"].(map[string]interface{})["promtail"].(map[string]interface{})
	assert.Equal(t, "****", promtail["password"])

	sources := exported["_sources"].(map[string]string)
	assert.Equal(t, "json", sources["Admin.Password"])
}

func TestConfigService_CreateDefaultConfig(t *testing.T) {
	repo := infraRepo.NewJSONConfigRepositoryAt(filepath.Join(t.TempDir(), "nested", "config.json"))
	svc, err := NewConfigService(repo, newTestLogger())
	require.NoError(t, err)

	require.NoError(t, svc.CreateDefaultConfig())
	exists, err := repo.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Error(t, svc.CreateDefaultConfig())
}

func TestConfigService_ReloadConfig(t *testing.T) {
	repo := writeConfigFile(t, `{"admin": {"username": "first"}}`)
	svc, err := NewConfigService(repo, newTestLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(repo.GetConfigPath(), []byte(`{"admin": {"username": "second"}}`), 0600))
	require.NoError(t, svc.ReloadConfig())
	assert.Equal(t, "second", svc.GetConfig().Admin.Username)

	require.NoError(t, os.WriteFile(repo.GetConfigPath(), []byte(`{`), 0600))
	assert.Error(t, svc.ReloadConfig())
	assert.Equal(t, "second", svc.GetConfig().Admin.Username)
}
