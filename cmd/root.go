package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/cosmoview/internal/logging"
)

// Version is reported by the health endpoint and sent as part of the
// descriptor User-Agent
var Version = "1.0.0"

var (
	cfgFile   string
	logOutput io.WriteCloser
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cosmoview",
	Short: "Deep-zoom viewer service for planetary and deep-space imagery",
	Long: `cosmoview serves deep-zoom viewer sessions over HTTP and prepares the
Deep Zoom Image (DZI) pyramids they display.

Viewer sessions keep a viewport (center, zoom, rotation) over a DZI tile
source, answer coordinate conversions, fly to highlighted regions and hold
annotations. Comparison sessions put two images side by side or on top of
each other with synchronized navigation.

Examples:
  # Start the API server with a catalog
  cosmoview serve --port 8080 --catalog ./catalog.yaml

  # Build a tile pyramid from a large image
  cosmoview tile mars.tif -o ./dzi

  # Inspect a tile source
  cosmoview info https://tiles.example.com/mars.dzi

  # Map a screen point to image pixels
  cosmoview convert https://tiles.example.com/mars.dzi --x 640 --y 400 --zoom 2`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logOutput != nil {
			logOutput.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cosmoview.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to a rotating file instead of stderr")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("log-json"))
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".cosmoview" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cosmoview")
	}

	// COSMOVIEW_SERVER_PORT overrides server.port
	viper.SetEnvPrefix("cosmoview")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return err
	}
	logOutput = logging.Output(viper.GetString("log.file"), cmd.ErrOrStderr())
	slog.SetDefault(logging.Logger(logOutput, viper.GetBool("log.json"), level))
	return nil
}
