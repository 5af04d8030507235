package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-storefront/internal/config"
)

func TestLoadDefaultDeliveryFee(t *testing.T) {
	t.Setenv("DEFAULT_DELIVERY_FEE", "")

	cfg := config.Load()
	// Minor currency units, like every other amount in the system.
	assert.Equal(t, int64(20000), cfg.Store.DefaultFee)
}

func TestLoadDeliveryFeeOverride(t *testing.T) {
	t.Setenv("DEFAULT_DELIVERY_FEE", "1500")

	cfg := config.Load()
	assert.Equal(t, int64(1500), cfg.Store.DefaultFee)
}

func TestLoadAdminKey(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "ops-key-1")

	cfg := config.Load()
	assert.Equal(t, "ops-key-1", cfg.Server.AdminKey)
}
