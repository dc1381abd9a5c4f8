package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/presignd/config"
)

var version = "dev"

// annotationNoConfig marks commands that run without a storage config.
const annotationNoConfig = "presignd/no-config"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "presignd",
	Short:   "Issue presigned upload and download URLs for R2/S3",
	Long: `presignd issues short-lived AWS Signature V4 presigned URLs for a single
Cloudflare R2 (or other S3-compatible) bucket. Clients upload and download
directly against the storage provider; presignd never proxies object bytes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Annotations[annotationNoConfig] != "" {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			setupLogging(level, format)
			return nil
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level, cfg.Log.Format)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s), merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "env file(s) loaded before the environment is read (default: .env if present)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: PRESIGND_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json (env: PRESIGND_LOG_FORMAT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env files, then config files, env and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	if err := config.LoadEnvFiles(len(envFiles) == 0, envFiles...); err != nil {
		return nil, err
	}

	configFiles, _ := cmd.Flags().GetStringSlice("config")
	return config.Load(configFiles, cmd.Flags())
}
