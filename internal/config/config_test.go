package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "https://example.bitrix24.ru/rest/17/token123/", cfg.Bitrix.BaseURL)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 8*time.Second, cfg.Bitrix.ConnectTimeout)
				assert.Equal(t, 30*time.Second, cfg.Bitrix.ReadTimeout)
				assert.Equal(t, 6, cfg.Bitrix.Retries)
				assert.Equal(t, 800*time.Millisecond, cfg.Bitrix.Backoff)
				assert.Equal(t, 2.0, cfg.Bitrix.RateLimit.PerSecond)
				assert.Equal(t, 5, cfg.Bitrix.RateLimit.Burst)
				assert.Equal(t, 68, cfg.List.ID)
				assert.Equal(t, "PROPERTY_204", cfg.List.SearchProperty)
				assert.Equal(t, "PROPERTY_202", cfg.List.DateProperty)
				assert.Equal(t, "UF_CRM_1755600973", cfg.Deal.TargetField)
				assert.Equal(t, 24, cfg.Deal.GraceHours)
				assert.Equal(t, 24*time.Hour, cfg.Deal.GracePeriod())
				assert.Equal(t, 1, cfg.MonthEnd.Day)
				assert.Equal(t, 0, cfg.MonthEnd.Hour)
				assert.Equal(t, 1, cfg.MonthEnd.Minute)
				assert.Equal(t, "Europe/Moscow", cfg.MonthEnd.Timezone)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "integration user derived from base URL",
			yaml: `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, int64(17), cfg.Deal.IntegrationUserID)
			},
		},
		{
			name: "explicit integration user kept",
			yaml: `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
deal:
  integration_user_id: 42
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, int64(42), cfg.Deal.IntegrationUserID)
			},
		},
		{
			name: "env var substitution",
			yaml: `
bitrix:
  base_url: "${TEST_B24_URL}"
`,
			envVars: map[string]string{
				"TEST_B24_URL": "https://portal.example.com/rest/5/abc/",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "https://portal.example.com/rest/5/abc/", cfg.Bitrix.BaseURL)
				assert.Equal(t, int64(5), cfg.Deal.IntegrationUserID)
			},
		},
		{
			name:    "missing required bitrix.base_url",
			yaml:    `{}`,
			wantErr: "bitrix.base_url is required",
		},
		{
			name: "negative grace hours rejected",
			yaml: `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
deal:
  grace_hours: -1
`,
			wantErr: "deal.grace_hours must not be negative",
		},
		{
			name: "month-end day out of range",
			yaml: `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
monthend:
  day: 31
`,
			wantErr: "monthend.day must be within 1..28",
		},
		{
			name: "invalid timezone",
			yaml: `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
monthend:
  timezone: Mars/Olympus
`,
			wantErr: "monthend.timezone is not a valid IANA zone",
		},
		{
			name: "invalid logging level",
			yaml: `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
logging:
  level: loud
`,
			wantErr: `logging.level must be one of: debug, info, warn, error (got "loud")`,
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 60s
  write_timeout: 60s
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
  connect_timeout: 5s
  read_timeout: 20s
  retries: 3
  backoff: 1s
  rate_limit:
    per_second: 1.5
    burst: 3
list:
  id: 70
  search_property: PROPERTY_SKU
  date_property: PROPERTY_ETA
deal:
  target_field: UF_CRM_CUSTOM
  lock_field: UF_CRM_LOCK
  grace_hours: 12
webhook:
  secret: s3cret
monthend:
  element_ids: ["12", "13"]
  day: 2
  hour: 3
  minute: 30
  timezone: UTC
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Bitrix.ConnectTimeout)
				assert.Equal(t, 3, cfg.Bitrix.Retries)
				assert.Equal(t, time.Second, cfg.Bitrix.Backoff)
				assert.Equal(t, 1.5, cfg.Bitrix.RateLimit.PerSecond)
				assert.Equal(t, 70, cfg.List.ID)
				assert.Equal(t, "PROPERTY_SKU", cfg.List.SearchProperty)
				assert.Equal(t, "PROPERTY_ETA", cfg.List.DateProperty)
				assert.Equal(t, "UF_CRM_CUSTOM", cfg.Deal.TargetField)
				assert.Equal(t, "UF_CRM_LOCK", cfg.Deal.LockField)
				assert.Equal(t, 12*time.Hour, cfg.Deal.GracePeriod())
				assert.Equal(t, "s3cret", cfg.Webhook.Secret)
				assert.Equal(t, []string{"12", "13"}, cfg.MonthEnd.ElementIDs)
				assert.Equal(t, 2, cfg.MonthEnd.Day)
				assert.Equal(t, 3, cfg.MonthEnd.Hour)
				assert.Equal(t, 30, cfg.MonthEnd.Minute)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_SecretFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	secretPath := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(secretPath, []byte("file-secret\n"), 0o600))

	yaml := `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
webhook:
  secret_file: ` + secretPath + `
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-secret", cfg.Webhook.Secret)
}

func TestLoad_InlineSecretWinsOverFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	secretPath := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(secretPath, []byte("file-secret"), 0o600))

	yaml := `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
webhook:
  secret: inline-secret
  secret_file: ` + secretPath + `
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "inline-secret", cfg.Webhook.Secret)
}

func TestLoad_MissingSecretFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yaml := `
bitrix:
  base_url: https://example.bitrix24.ru/rest/17/token123/
webhook:
  secret_file: /nonexistent/secret
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading webhook.secret_file")
}
