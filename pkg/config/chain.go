package config

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/FilOzone/synapse-sdk-go/pkg/facade"
)

// ChainConfig selects the RPC connection and signing key a file-driven
// deployment uses. It only expresses the "privateKey + rpcURL" constructor
// variant (see facade.Config.validate); callers wiring a pre-dialed Backend
// or an out-of-process Signer build facade.Config directly instead of going
// through this package.
type ChainConfig struct {
	RPCURL              string `mapstructure:"rpc_url" validate:"required,url" toml:"rpc_url" flag:"rpc-url"`
	PrivateKeyFile      string `mapstructure:"private_key_file" validate:"required" toml:"private_key_file" flag:"private-key-file"`
	DisableNonceManager bool   `mapstructure:"disable_nonce_manager" toml:"disable_nonce_manager,omitempty" flag:"disable-nonce-manager"`
}

func (c ChainConfig) Validate() error {
	return validateConfig(c)
}

func (c ChainConfig) ToAppConfig() (facade.Config, error) {
	return facade.Config{
		RPCURL:              c.RPCURL,
		PrivateKeyPath:      c.PrivateKeyFile,
		DisableNonceManager: c.DisableNonceManager,
	}, nil
}

// PaymentsConfig overrides payment-rail defaults.
type PaymentsConfig struct {
	// TokenAddress overrides the network's default stablecoin. Empty
	// selects payments.New's configured default.
	TokenAddress string `mapstructure:"token_address" validate:"omitempty,len=42" toml:"token_address,omitempty" flag:"payments-token"`
}

func (p PaymentsConfig) Validate() error {
	return validateConfig(p)
}

func (p PaymentsConfig) ToAppConfig() (common.Address, error) {
	if p.TokenAddress == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(p.TokenAddress) {
		return common.Address{}, errInvalidAddress("payments.token_address", p.TokenAddress)
	}
	return common.HexToAddress(p.TokenAddress), nil
}

// SessionKeysConfig overrides the session-key registry deployment address.
type SessionKeysConfig struct {
	RegistryAddress string `mapstructure:"registry_address" validate:"omitempty,len=42" toml:"registry_address,omitempty" flag:"session-key-registry"`
}

func (s SessionKeysConfig) Validate() error {
	return validateConfig(s)
}

func (s SessionKeysConfig) ToAppConfig() (common.Address, error) {
	if s.RegistryAddress == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s.RegistryAddress) {
		return common.Address{}, errInvalidAddress("session_keys.registry_address", s.RegistryAddress)
	}
	return common.HexToAddress(s.RegistryAddress), nil
}

// RetrievalConfig controls the CDN layer of the retriever chain the facade
// builds (see facade.provideFetcher).
type RetrievalConfig struct {
	DisableCDN bool   `mapstructure:"disable_cdn" toml:"disable_cdn,omitempty" flag:"disable-cdn"`
	CDNBaseURL string `mapstructure:"cdn_base_url" validate:"omitempty,url" toml:"cdn_base_url,omitempty" flag:"cdn-base-url"`
}

func (r RetrievalConfig) Validate() error {
	return validateConfig(r)
}

func (r RetrievalConfig) ToAppConfig() facade.Config {
	return facade.Config{
		DisableCDN: r.DisableCDN,
		CDNBaseURL: r.CDNBaseURL,
	}
}

func errInvalidAddress(field, value string) error {
	return &invalidAddressError{field: field, value: value}
}

type invalidAddressError struct {
	field, value string
}

func (e *invalidAddressError) Error() string {
	return "config: " + e.field + " is not a hex address: " + e.value
}
