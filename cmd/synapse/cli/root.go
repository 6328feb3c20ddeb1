// Package cli implements the synapse command-line client: a cobra tree
// exercising pkg/facade's payments and upload/download surface against a
// file/env/flag-driven pkg/config.FileConfig.
package cli

import (
	"context"
	"fmt"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FilOzone/synapse-sdk-go/pkg/config"
	"github.com/FilOzone/synapse-sdk-go/pkg/facade"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
)

var log = logging.Logger("cmd")

var (
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "synapse",
		Short: "Command-line client for the warm storage payments and retrieval network",
	}
)

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func init() {
	cobra.OnInitialize(initLogging, initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "logging level")

	rootCmd.PersistentFlags().String("rpc-url", "", "chain RPC endpoint URL")
	cobra.CheckErr(viper.BindPFlag("chain.rpc_url", rootCmd.PersistentFlags().Lookup("rpc-url")))

	rootCmd.PersistentFlags().String("private-key-file", "", "path to a private key file")
	cobra.CheckErr(viper.BindPFlag("chain.private_key_file", rootCmd.PersistentFlags().Lookup("private-key-file")))

	rootCmd.PersistentFlags().Bool("disable-nonce-manager", false, "skip local nonce tracking")
	cobra.CheckErr(viper.BindPFlag("chain.disable_nonce_manager", rootCmd.PersistentFlags().Lookup("disable-nonce-manager")))

	rootCmd.PersistentFlags().String("payments-token", "", "payments token contract address override")
	cobra.CheckErr(viper.BindPFlag("payments.token_address", rootCmd.PersistentFlags().Lookup("payments-token")))

	rootCmd.PersistentFlags().Bool("disable-cdn", false, "skip the CDN edge cache in the retrieval chain")
	cobra.CheckErr(viper.BindPFlag("retrieval.disable_cdn", rootCmd.PersistentFlags().Lookup("disable-cdn")))

	rootCmd.PersistentFlags().String("cdn-base-url", "", "override the default CDN base URL")
	cobra.CheckErr(viper.BindPFlag("retrieval.cdn_base_url", rootCmd.PersistentFlags().Lookup("cdn-base-url")))

	rootCmd.AddCommand(paymentsCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(preflightCmd)
}

func initConfig() {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("SYNAPSE")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		cobra.CheckErr(viper.ReadInConfig())
		return
	}
	viper.SetConfigName("synapse-config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()
}

func initLogging() {
	if logLevel == "" {
		return
	}
	ll, err := logging.LevelFromString(logLevel)
	cobra.CheckErr(err)
	logging.SetAllLoggers(ll)
}

// loadSynapse loads FileConfig, converts it to a facade.Config, and builds
// the full dependency graph. cb is the storage-context lifecycle callback
// set used for any upload the facade opens implicitly.
func loadSynapse(ctx context.Context, cb storagecontext.Callbacks) (*facade.Synapse, error) {
	fileCfg, err := config.Load[config.FileConfig]()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	appCfg, err := fileCfg.ToAppConfig()
	if err != nil {
		return nil, fmt.Errorf("converting config: %w", err)
	}

	synapse, err := facade.New(ctx, appCfg, cb)
	if err != nil {
		return nil, fmt.Errorf("initializing client: %w", err)
	}
	return synapse, nil
}
