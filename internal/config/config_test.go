package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no config.yaml or .env leaks in
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config, string)
	}{
		{
			name: "default configuration with no env vars",
			validateCfg: func(t *testing.T, cfg *Config, dir string) {
				assert.Equal(t, 8050, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, []string{"http://localhost:8050"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, "Albany", cfg.Dashboard.DefaultRegion)
				assert.Equal(t, "organic", cfg.Dashboard.DefaultType)
				assert.Equal(t, filepath.Join(dir, "data", "avocado.csv"), cfg.Dataset.Path)
				assert.Equal(t, filepath.Join(dir, "data", "queries.db"), cfg.QueryLog.Path)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "environment overrides defaults",
			env: map[string]string{
				"AVOCADO_SERVER_PORT":              "9000",
				"AVOCADO_DASHBOARD_DEFAULT_REGION": "Boston",
				"AVOCADO_DATASET_FILE":             "/srv/avocado.xlsx",
				"AVOCADO_QUERY_LOG_ENABLED":        "false",
				"AVOCADO_SECURITY_ALLOWED_ORIGINS": "http://a.example,http://b.example",
			},
			validateCfg: func(t *testing.T, cfg *Config, _ string) {
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "Boston", cfg.Dashboard.DefaultRegion)
				assert.Equal(t, "/srv/avocado.xlsx", cfg.Dataset.Path)
				assert.False(t, cfg.QueryLog.Enabled)
				assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
			},
		},
		{
			name: "file overrides defaults and env overrides file",
			file: "server:\n  port: 7000\n  read_timeout: 5s\ndashboard:\n  default_region: Denver\n  default_type: conventional\n",
			env:  map[string]string{"AVOCADO_SERVER_PORT": "7100"},
			validateCfg: func(t *testing.T, cfg *Config, _ string) {
				assert.Equal(t, 7100, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "Denver", cfg.Dashboard.DefaultRegion)
				assert.Equal(t, "conventional", cfg.Dashboard.DefaultType)
				// untouched sections keep their defaults
				assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
			},
		},
		{
			name:    "invalid port from env",
			env:     map[string]string{"AVOCADO_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "unparsable env value",
			env:     map[string]string{"AVOCADO_SERVER_READ_TIMEOUT": "soon"},
			wantErr: "failed to load config from env",
		},
		{
			name:    "malformed yaml",
			file:    "server: [this is not a map",
			wantErr: "failed to load config from file",
		},
		{
			name:    "unsupported dataset extension",
			env:     map[string]string{"AVOCADO_DATASET_FILE": "data/avocado.json"},
			wantErr: "unsupported dataset extension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.file != "" {
				configFile = filepath.Join(dir, "config.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.file), 0644))
			}

			cfg, err := LoadFrom(configFile)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg, dir)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AVOCADO_DASHBOARD_DEFAULT_TYPE=conventional\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("AVOCADO_DASHBOARD_DEFAULT_TYPE") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "conventional", cfg.Dashboard.DefaultType)
}

func TestGetConfigFilePath(t *testing.T) {
	dir := isolate(t)
	assert.Equal(t, "", getConfigFilePath())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte("{}"), 0644))
	assert.Equal(t, "configs/config.yaml", getConfigFilePath())

	t.Setenv("AVOCADO_CONFIG_FILE", "/etc/avocado.yaml")
	assert.Equal(t, "/etc/avocado.yaml", getConfigFilePath())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "zero read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = 0 }, wantErr: "read timeout"},
		{name: "zero write timeout", mutate: func(c *Config) { c.Server.WriteTimeout = 0 }, wantErr: "write timeout"},
		{name: "cors without origins", mutate: func(c *Config) { c.Security.AllowedOrigins = nil }, wantErr: "allowed origin"},
		{name: "cors disabled without origins", mutate: func(c *Config) {
			c.Security.EnableCORS = false
			c.Security.AllowedOrigins = nil
		}},
		{name: "rate limit burst zero", mutate: func(c *Config) { c.Security.RateLimit.Burst = 0 }, wantErr: "rate limit"},
		{name: "empty dataset path", mutate: func(c *Config) { c.Dataset.Path = "" }, wantErr: "dataset path"},
		{name: "xlsx dataset", mutate: func(c *Config) { c.Dataset.Path = "/data/avocado.XLSX" }},
		{name: "bad log output", mutate: func(c *Config) { c.Logging.Output = "syslog" }, wantErr: "logging output"},
		{name: "query log without path", mutate: func(c *Config) { c.QueryLog.Path = "" }, wantErr: "query log path"},
		{name: "bad trace exporter", mutate: func(c *Config) { c.Telemetry.TraceExporter = "otlp" }, wantErr: "trace exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "logfmt"
	cfg.QueryLog.RecentLimit = 0

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultRecentQueries, cfg.QueryLog.RecentLimit)
}

func TestResolvePaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = "/opt/avocado"
	cfg.QueryLog.Path = "/var/lib/avocado/q.db"

	require.NoError(t, cfg.resolvePaths())
	assert.Equal(t, "/opt/avocado/data", cfg.Paths.DataDir)
	assert.Equal(t, "/opt/avocado/logs", cfg.Paths.LogsDir)
	assert.Equal(t, "/opt/avocado/data/avocado.csv", cfg.Dataset.Path)
	assert.Equal(t, "/var/lib/avocado/q.db", cfg.QueryLog.Path, "absolute paths are kept")
	assert.Equal(t, "/opt/avocado/logs/app.log", cfg.Logging.FilePath)
}

func TestServerAddr(t *testing.T) {
	assert.Equal(t, ":8050", Default().Server.Addr())
	assert.Equal(t, "127.0.0.1:9", ServerConfig{Host: "127.0.0.1", Port: 9}.Addr())
}
