package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = `
app:
  http_addr: ":9090"
database:
  driver: memory
auth:
  session:
    secret: "0123456789abcdef0123456789abcdef"
payments:
  webhook_secret: whsec_1
  identity_webhook_secret: whsec_2
pricing:
  tax_rate: 0.08875
`

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestLoadLayers(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		"base.yaml":    base,
		"staging.yaml": "tracking:\n  interval: 1s\n",
	})
	t.Setenv("DELIVERY_RATE_LIMIT__CHECKOUT__LIMIT", "3")
	t.Setenv("DELIVERY_KAFKA__BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(dir, "staging")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.App.HTTPAddr, "from base")
	assert.Equal(t, time.Second, cfg.Tracking.Interval, "from the env file")
	assert.Equal(t, 3, cfg.RateLimit.Checkout.Limit, "from the environment")
	assert.Equal(t, time.Minute, cfg.RateLimit.Checkout.Window, "defaults survive partial overrides")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 120, cfg.Tracking.MaxTicks, "default")

	pc, err := cfg.PricingConfig()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.08875").Equal(pc.TaxRate))
	assert.True(t, decimal.RequireFromString("5.00").Equal(pc.DeliveryFee))
	assert.True(t, decimal.RequireFromString("0.50").Equal(cfg.MinAmount()))
}

func TestLoadMissingEnvFileIsOptional(t *testing.T) {
	dir := writeConfig(t, map[string]string{"base.yaml": base})
	_, err := Load(dir, "production")
	assert.NoError(t, err)

	_, err = Load(t.TempDir(), "")
	assert.Error(t, err, "base.yaml is required")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dsn")
	assert.Contains(t, err.Error(), "auth.session.secret")
	assert.Contains(t, err.Error(), "webhook_secret")

	cfg.Database.Driver = "sqlite"
	cfg.Tracking.Mode = "teleport"
	cfg.Pricing.TaxRate = "ten percent"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "tracking.mode")
	assert.Contains(t, err.Error(), "pricing.tax_rate")
}
