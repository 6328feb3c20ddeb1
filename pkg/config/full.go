package config

import (
	"fmt"

	"github.com/FilOzone/synapse-sdk-go/pkg/facade"
)

// FileConfig is the root of a file/env/flag-driven Synapse deployment: one
// viper.Unmarshal target carrying every mapstructure/validate/flag tag the
// sub-configs declare.
type FileConfig struct {
	Chain       ChainConfig       `mapstructure:"chain" toml:"chain"`
	Payments    PaymentsConfig    `mapstructure:"payments" toml:"payments,omitempty"`
	SessionKeys SessionKeysConfig `mapstructure:"session_keys" toml:"session_keys,omitempty"`
	Retrieval   RetrievalConfig   `mapstructure:"retrieval" toml:"retrieval,omitempty"`
	Logging     LoggingConfig     `mapstructure:"logging" toml:"logging,omitempty"`
}

func (f FileConfig) Validate() error {
	return validateConfig(f)
}

// ToAppConfig converts the validated wire config into a facade.Config ready
// for facade.New. The returned config always selects the "privateKey +
// rpcURL" constructor variant; callers needing the "provider" or "signer"
// variants (a pre-dialed Backend, an out-of-process Signer) set those fields
// on the returned value themselves before calling facade.New.
func (f FileConfig) ToAppConfig() (facade.Config, error) {
	out, err := f.Chain.ToAppConfig()
	if err != nil {
		return facade.Config{}, fmt.Errorf("converting chain config: %w", err)
	}

	out.PaymentsToken, err = f.Payments.ToAppConfig()
	if err != nil {
		return facade.Config{}, fmt.Errorf("converting payments config: %w", err)
	}

	out.SessionKeyRegistry, err = f.SessionKeys.ToAppConfig()
	if err != nil {
		return facade.Config{}, fmt.Errorf("converting session key config: %w", err)
	}

	retrieval := f.Retrieval.ToAppConfig()
	out.DisableCDN = retrieval.DisableCDN
	out.CDNBaseURL = retrieval.CDNBaseURL

	return out, nil
}
