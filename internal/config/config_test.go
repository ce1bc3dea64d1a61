package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/wst-etc/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// clearEnv isolates Load from the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"WST_ETC_HOST", "WST_ETC_PORT", "PORT", "WST_ETC_BACKEND", "WST_ETC_BACKEND_URL", "WST_ETC_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5001, cfg.Port)
	assert.Equal(t, "0.0.0.0:5001", cfg.Addr())
	assert.Equal(t, BackendBuiltin, cfg.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "custom.yaml", `
host: 127.0.0.1
port: 8080
backend: remote
backend_url: http://etc.internal:9000
request_timeout: 30s
retry_delay: 500ms
log_format: console
parameters:
  DIT: 300
  SKYCALC: false
  MAG_SYS: AB
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, "http://etc.internal:9000", cfg.BackendURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, "console", cfg.LogFormat)
	// untouched fields keep defaults
	assert.Equal(t, 3, cfg.MaxRetries)

	ps := cfg.FormDefaults()
	assert.True(t, model.IntValue(300).Equal(ps["DIT"]))
	assert.True(t, model.BoolValue(false).Equal(ps["SKYCALC"]))
	assert.True(t, model.StringValue("AB").Equal(ps["MAG_SYS"]))
	assert.True(t, model.IntValue(1).Equal(ps["NDIT"]))
}

func TestLoadSearchesDefaultFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "etc.yaml", "port: 7000\n")
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)

	writeFile(t, dir, "wst_etc.yaml", "port: 7100\n")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "bad.yaml", "port: [1, 2\n"))
	assert.ErrorContains(t, err, "failed to parse")

	_, err = Load(writeFile(t, dir, "backend.yaml", "backend: fortran\n"))
	assert.ErrorContains(t, err, "unknown backend")

	_, err = Load(writeFile(t, dir, "param.yaml", "parameters:\n  EXPTIME: 3\n"))
	assert.ErrorContains(t, err, "EXPTIME")

	_, err = Load(writeFile(t, dir, "composite.yaml", "parameters:\n  DIT: [1, 2]\n"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("WST_ETC_HOST", "localhost")
	t.Setenv("PORT", "9000")
	t.Setenv("WST_ETC_BACKEND", "REMOTE")
	t.Setenv("WST_ETC_BACKEND_URL", "http://backend:1234")
	t.Setenv("WST_ETC_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", cfg.Addr())
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, "http://backend:1234", cfg.BackendURL)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("WST_ETC_PORT", "9100")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
}

func TestEnvOverrideInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("WST_ETC_PORT", "http")
	_, err := Load("")
	assert.ErrorContains(t, err, "WST_ETC_PORT")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.Backend = BackendRemote
	cfg.BackendURL = ""
	cfg.MaxRetries = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 0")
	assert.Contains(t, err.Error(), "backend_url")
	assert.Contains(t, err.Error(), "max_retries")
}

func TestFormDefaultsAreIndependent(t *testing.T) {
	cfg := DefaultConfig()
	a := cfg.FormDefaults()
	a["DIT"] = model.IntValue(1)
	assert.True(t, model.IntValue(600).Equal(cfg.FormDefaults()["DIT"]))
}
