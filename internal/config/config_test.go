package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldp-wms/tenant-core/internal/config"
)

func TestLoad_ParsesEnvTagsAndDefaults(t *testing.T) {
	t.Setenv("GATEWAY_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("GATEWAY_JWKS_URL", "https://authbff.test/.well-known/jwks.json")

	cfg, err := config.Load[config.GatewayConfig]()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://authbff.test/.well-known/jwks.json", cfg.JWKSURL)
}

func TestLoad_RequiredFieldMissing_Errors(t *testing.T) {
	os.Unsetenv("AUTHBFF_DATABASE_URL")
	os.Unsetenv("AUTHBFF_PRIVATE_KEY_PEM")

	_, err := config.Load[config.AuthBFFConfig]()
	assert.Error(t, err)
}

func TestValidateAllowedOrigins_RejectsWildcard(t *testing.T) {
	assert.Error(t, config.ValidateAllowedOrigins([]string{"*"}))
}

func TestValidateAllowedOrigins_RejectsPlainHTTP(t *testing.T) {
	assert.Error(t, config.ValidateAllowedOrigins([]string{"http://example.com"}))
}

func TestValidateAllowedOrigins_AllowsHTTPSAndLocalhost(t *testing.T) {
	assert.NoError(t, config.ValidateAllowedOrigins([]string{"https://app.example.com", "http://localhost:3000"}))
}
