package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pidev-project/pidev/pkg/catalog"
	"github.com/pidev-project/pidev/pkg/connections"
	"github.com/pidev-project/pidev/pkg/logger"
)

var (
	cfgFile     string
	verboseMode bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pidev",
	Short: "pidev deploys and debugs .NET applications on Raspberry Pi devices",
	Long: `pidev manages remote Raspberry Pi devices for .NET development:
it connects over SSH, provisions passwordless authentication, installs the
.NET SDK and the vsdbg debugger, and deploys published binaries.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pidev/config.yaml)")
	rootCmd.PersistentFlags().
		BoolVarP(&verboseMode, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			viper.AddConfigPath(home + "/.config/pidev")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("PIDEV")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}

	logger.InitLoggerOutputs()
	if verboseMode {
		logger.GlobalLogLevel = "debug"
	}
	logger.InitProduction()
}

func openStore() (*connections.Store, error) {
	path := viper.GetString("general.connections_path")
	if path == "" {
		var err error
		path, err = connections.DefaultStorePath()
		if err != nil {
			return nil, err
		}
	}
	return connections.NewStore(path), nil
}

func openKeystore() (*connections.Keystore, error) {
	dir := viper.GetString("general.keystore_path")
	if dir == "" {
		var err error
		dir, err = connections.DefaultKeystorePath()
		if err != nil {
			return nil, err
		}
	}
	return connections.NewKeystore(dir), nil
}

func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	feedURL := catalog.DefaultFeedURL
	if viper.IsSet("catalog.feed_url") {
		feedURL = viper.GetString("catalog.feed_url")
	}
	return catalog.Load(ctx, feedURL)
}
