package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := ChainConfig{RPCURL: "https://api.node.glif.io/rpc/v1", PrivateKeyFile: "/tmp/key.pem"}
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing rpc url", func(t *testing.T) {
		cfg := ChainConfig{PrivateKeyFile: "/tmp/key.pem"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing private key file", func(t *testing.T) {
		cfg := ChainConfig{RPCURL: "https://api.node.glif.io/rpc/v1"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("malformed rpc url", func(t *testing.T) {
		cfg := ChainConfig{RPCURL: "not-a-url", PrivateKeyFile: "/tmp/key.pem"}
		assert.Error(t, cfg.Validate())
	})
}

func TestChainConfig_ToAppConfig(t *testing.T) {
	cfg := ChainConfig{
		RPCURL:              "https://api.node.glif.io/rpc/v1",
		PrivateKeyFile:      "/tmp/key.pem",
		DisableNonceManager: true,
	}
	out, err := cfg.ToAppConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.node.glif.io/rpc/v1", out.RPCURL)
	assert.Equal(t, "/tmp/key.pem", out.PrivateKeyPath)
	assert.True(t, out.DisableNonceManager)
}

func TestPaymentsConfig_ToAppConfig(t *testing.T) {
	t.Run("empty selects default", func(t *testing.T) {
		addr, err := PaymentsConfig{}.ToAppConfig()
		require.NoError(t, err)
		assert.True(t, addr == (common.Address{}))
	})

	t.Run("valid hex address", func(t *testing.T) {
		addr, err := PaymentsConfig{TokenAddress: "0x1111111111111111111111111111111111111111"}.ToAppConfig()
		require.NoError(t, err)
		assert.Equal(t, "0x1111111111111111111111111111111111111111", addr.Hex())
	})

	t.Run("malformed address rejected", func(t *testing.T) {
		_, err := PaymentsConfig{TokenAddress: "not-an-address"}.ToAppConfig()
		assert.Error(t, err)
	})
}

func TestSessionKeysConfig_ToAppConfig(t *testing.T) {
	t.Run("empty leaves session keys disabled", func(t *testing.T) {
		addr, err := SessionKeysConfig{}.ToAppConfig()
		require.NoError(t, err)
		assert.True(t, addr == (common.Address{}))
	})

	t.Run("malformed address rejected", func(t *testing.T) {
		_, err := SessionKeysConfig{RegistryAddress: "nope"}.ToAppConfig()
		assert.Error(t, err)
	})
}

func TestRetrievalConfig_ToAppConfig(t *testing.T) {
	cfg := RetrievalConfig{DisableCDN: true, CDNBaseURL: "https://cdn.example.com"}
	out := cfg.ToAppConfig()
	assert.True(t, out.DisableCDN)
	assert.Equal(t, "https://cdn.example.com", out.CDNBaseURL)
}

func TestFileConfig_ToAppConfig(t *testing.T) {
	cfg := FileConfig{
		Chain: ChainConfig{
			RPCURL:         "https://api.node.glif.io/rpc/v1",
			PrivateKeyFile: "/tmp/key.pem",
		},
		Payments:    PaymentsConfig{TokenAddress: "0x2222222222222222222222222222222222222222"},
		SessionKeys: SessionKeysConfig{RegistryAddress: "0x3333333333333333333333333333333333333333"},
		Retrieval:   RetrievalConfig{DisableCDN: true},
	}
	out, err := cfg.ToAppConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.node.glif.io/rpc/v1", out.RPCURL)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", out.PaymentsToken.Hex())
	assert.Equal(t, "0x3333333333333333333333333333333333333333", out.SessionKeyRegistry.Hex())
	assert.True(t, out.DisableCDN)
}

func TestFileConfig_Validate_PropagatesNestedErrors(t *testing.T) {
	cfg := FileConfig{Chain: ChainConfig{PrivateKeyFile: "/tmp/key.pem"}}
	assert.Error(t, cfg.Validate())
}

func TestLoggingConfig_Apply(t *testing.T) {
	t.Run("defaults to info", func(t *testing.T) {
		require.NoError(t, LoggingConfig{}.Apply())
	})

	t.Run("accepts configured level", func(t *testing.T) {
		require.NoError(t, LoggingConfig{Level: "debug"}.Apply())
	})
}
