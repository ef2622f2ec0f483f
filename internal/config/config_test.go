package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: "dev"
storage: "memory"
http_server:
  address: ":9090"
  timeout: 2s
mysql:
  db_user: "mes"
  db_password: "secret"
  db_host: "db"
  db_name: "mes_test"
redis:
  addr: "redis:6379"
audit:
  queue_size: 16
allowed_origins:
  - "http://localhost:5173"
admin_login: "root"
admin_pass: "pw"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, 2*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 15*time.Second, cfg.HTTPServer.WriteTimeout)
	assert.Equal(t, 16, cfg.Audit.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Audit.DrainTimeout)
	assert.Equal(t, "smartmes", cfg.Redis.ChannelPrefix)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, "mes:secret@tcp(db:3306)/mes_test?parseTime=true&loc=Local", cfg.MySQL.DSN())
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("MES_ENV", "local")
	t.Setenv("MES_STORAGE", "memory")
	t.Setenv("MES_ADMIN_PASS", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "from-env", cfg.AdminPass)
	assert.Equal(t, "localhost:4001", cfg.Address)
	assert.Equal(t, 256, cfg.Audit.QueueSize)
}
