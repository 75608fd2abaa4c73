package firmasegura

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromBytes(t *testing.T) {
	t.Setenv("FIRMASEGURA_TOKEN", "secret-from-env")

	cfg, err := LoadConfigFromBytes([]byte(`
name: firmasegura-sandbox
base_url: https://sandbox.firmasegura.test/
token: ${FIRMASEGURA_TOKEN}
timeout_seconds: 15
endpoints:
  collector: /v2/collector/request
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "firmasegura-sandbox", cfg.Name)
	assert.Equal(t, "https://sandbox.firmasegura.test", cfg.BaseURL)
	assert.Equal(t, "secret-from-env", cfg.Token)
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, "/v2/collector/request", cfg.Endpoints.Collector)
	assert.Equal(t, defaultStatusPath, cfg.Endpoints.Status)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firmasegura.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://fs.test\ntoken: abc\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Token)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestProviderConfig_Validate(t *testing.T) {
	cfg := ProviderConfig{Token: "abc"}
	assert.EqualError(t, cfg.Validate(), "base_url is required")

	cfg = ProviderConfig{BaseURL: "https://fs.test"}
	assert.EqualError(t, cfg.Validate(), "token is required")

	cfg = ProviderConfig{BaseURL: "https://fs.test", Token: "abc"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "firmasegura", cfg.Name)
	assert.Equal(t, 60*time.Second, cfg.Timeout())
	assert.Equal(t, defaultCollectorPath, cfg.Endpoints.Collector)
}

func TestProviderConfig_Merge(t *testing.T) {
	file := ProviderConfig{BaseURL: "https://file.test", Endpoints: EndpointsConfig{Status: "/status"}}
	merged := file.Merge(ProviderConfig{BaseURL: "https://env.test", Token: "env-token", TimeoutSeconds: 30})

	assert.Equal(t, "https://file.test", merged.BaseURL)
	assert.Equal(t, "env-token", merged.Token)
	assert.Equal(t, 30, merged.TimeoutSeconds)
	assert.Equal(t, "/status", merged.Endpoints.Status)
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("CERTIFY_TEST_VALUE", "expanded")
	assert.Equal(t, "expanded", expandEnvVar("${CERTIFY_TEST_VALUE}"))
	assert.Equal(t, "${CERTIFY_UNSET_VALUE}", expandEnvVar("${CERTIFY_UNSET_VALUE}"))
	assert.Equal(t, "plain", expandEnvVar("plain"))
}
