package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Run("returns override when set", func(t *testing.T) {
		t.Setenv("LAND_CHARGES_URL", "http://lc.internal:9000")
		assert.Equal(t, "http://lc.internal:9000", Resolve("LAND_CHARGES_URL", "http://localhost:5004"))
	})

	t.Run("empty value falls back", func(t *testing.T) {
		t.Setenv("LAND_CHARGES_URL", "")
		assert.Equal(t, "http://localhost:5004", Resolve("LAND_CHARGES_URL", "http://localhost:5004"))
	})

	t.Run("malformed value propagates unchanged", func(t *testing.T) {
		t.Setenv("LAND_CHARGES_URL", "not a url")
		assert.Equal(t, "not a url", Resolve("LAND_CHARGES_URL", "http://localhost:5004"))
	})
}

func clearEndpointEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnv, "")
	for _, b := range endpointBindings {
		t.Setenv(b.envKey, "")
	}
}

func endpointValue(cfg *Config, key string) string {
	list := cfg.EndpointList()
	for i, b := range endpointBindings {
		if b.key == key {
			return list[i].URL
		}
	}
	return ""
}

func TestLoadAgreesWithResolve(t *testing.T) {
	for _, b := range endpointBindings {
		t.Run(b.name, func(t *testing.T) {
			clearEndpointEnv(t)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, Resolve(b.envKey, b.fallback), endpointValue(cfg, b.key))

			t.Setenv(b.envKey, "http://override.test:1234")
			cfg, err = Load()
			require.NoError(t, err)
			assert.Equal(t, Resolve(b.envKey, b.fallback), endpointValue(cfg, b.key))
			assert.Equal(t, "http://override.test:1234", endpointValue(cfg, b.key))
		})
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	clearEndpointEnv(t)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoints:
  casework_api: http://casework.from-file
fixtures:
  strict: true
kafka:
  topics:
    registrations: lc-new
`), 0o600))
	t.Setenv(ConfigPathEnv, path)
	t.Setenv("LAND_CHARGES_URL", "http://lc.from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://casework.from-file", cfg.Endpoints.CaseworkAPI)
	assert.Equal(t, "http://lc.from-env", cfg.Endpoints.LandCharges)
	assert.True(t, cfg.Fixtures.Strict)
	assert.Equal(t, "lc-new", cfg.Kafka.Topics.Registrations)
	assert.Equal(t, "assist-logs", cfg.Kafka.Topics.Logs)
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	clearEndpointEnv(t)
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	clearEndpointEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "http://localhost:5001", cfg.Endpoints.PublicAPI)
	assert.Equal(t, "http://localhost:5002", cfg.Endpoints.AutomaticProcess)
	assert.Equal(t, "http://localhost:5004", cfg.Endpoints.BankruptcyRegistration)
	assert.Equal(t, "http://localhost:5004", cfg.Endpoints.LandCharges)
	assert.Equal(t, "http://localhost:5006", cfg.Endpoints.CaseworkAPI)
	assert.Equal(t, "http://localhost:5007", cfg.Endpoints.LegacyDB)
	assert.Equal(t, "http://localhost:5010", cfg.Endpoints.Frontend)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, "clear-data", cfg.Fixtures.ClearCommand)
	assert.False(t, cfg.Fixtures.Strict)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "assist-reports", cfg.Kafka.Topics.Reports)
	assert.Equal(t, "new-registrations", cfg.Kafka.Topics.Registrations)
}

func TestLoadLandChargesOverrideFeedsBothEndpoints(t *testing.T) {
	clearEndpointEnv(t)
	t.Setenv("LAND_CHARGES_URL", "http://lc.test:8004")
	t.Setenv("CASEWORK_API_URL", "http://casework.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://lc.test:8004", cfg.Endpoints.LandCharges)
	assert.Equal(t, "http://lc.test:8004", cfg.Endpoints.BankruptcyRegistration)
	assert.Equal(t, "http://casework.test", cfg.Endpoints.CaseworkAPI)
	assert.Equal(t, "http://localhost:5001", cfg.Endpoints.PublicAPI)
}

func TestEndpointList(t *testing.T) {
	clearEndpointEnv(t)
	t.Setenv("LEGACY_ADAPTER_URL", "http://legacy.test")

	cfg, err := Load()
	require.NoError(t, err)

	list := cfg.EndpointList()
	require.Len(t, list, 7)

	assert.Equal(t, "public-api", list[0].Name)
	assert.Equal(t, "PUBLIC_API_URL", list[0].EnvKey)
	assert.Equal(t, "LAND_CHARGES_URL", list[2].EnvKey)
	assert.Equal(t, "LAND_CHARGES_URL", list[3].EnvKey)
	assert.Equal(t, "http://legacy.test", list[5].URL)
	assert.Equal(t, "http://localhost:5010", list[6].URL)
}
