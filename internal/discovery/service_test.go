package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/signing"
)

func merchantCfg() config.MerchantConfig {
	return config.MerchantConfig{
		BaseURL:  "https://shopwalk.example/",
		Currency: "usd",
	}
}

func TestProfileBaseline(t *testing.T) {
	builder := NewBuilder(merchantCfg(), config.SquareConfig{}, nil)
	profile := builder.Profile()

	assert.Equal(t, "2026-01-23", profile.UCP.Version)
	assert.Equal(t, "USD", profile.UCP.Currency)

	services := profile.UCP.Services["dev.ucp.shopping"]
	require.Len(t, services, 1)
	assert.Equal(t, "rest", services[0].Transport)
	assert.Equal(t, "https://shopwalk.example/ucp/v1", services[0].Endpoint)

	assert.Contains(t, profile.UCP.Capabilities, "dev.ucp.shopping.checkout")
	assert.Contains(t, profile.UCP.Capabilities, "dev.ucp.shopping.order")
	fulfillment := profile.UCP.Capabilities["dev.ucp.shopping.fulfillment"]
	require.Len(t, fulfillment, 1)
	assert.Equal(t, "dev.ucp.shopping.checkout", fulfillment[0].Extends)

	assert.Empty(t, profile.UCP.PaymentHandlers)
	assert.Nil(t, profile.UCP.SigningKeys)
}

func TestProfileAdvertisesSquareWhenConfigured(t *testing.T) {
	builder := NewBuilder(merchantCfg(), config.SquareConfig{
		AccessToken: "sq0atp-token",
		LocationID:  "LOC1",
	}, nil)
	profile := builder.Profile()

	handlers := profile.UCP.PaymentHandlers["com.squareup"]
	require.Len(t, handlers, 1)
	assert.Equal(t, "com.squareup.card", handlers[0].ID)
}

func TestProfileIncludesSigningKeys(t *testing.T) {
	signer, err := signing.GenerateSigner("test-key")
	require.NoError(t, err)

	builder := NewBuilder(merchantCfg(), config.SquareConfig{}, signer)
	profile := builder.Profile()

	require.NotNil(t, profile.UCP.SigningKeys)
	require.Len(t, profile.UCP.SigningKeys.Keys, 1)
	assert.Equal(t, "test-key", profile.UCP.SigningKeys.Keys[0].KID)
}
