package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/presignd"
	"github.com/sagarc03/presignd/signer"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a config file interactively",
	Long: `Prompt for the R2 account id, access key pair and bucket, then write a
config file (default: ./config.yaml).

The secret key is written to the file in plain text; restrict its
permissions or supply PRESIGND_STORAGE_SECRET_KEY from the environment
instead and leave the prompt empty.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing file without asking")

	rootCmd.AddCommand(initCmd)
}

// fileConfig is the subset of config written by init.
type fileConfig struct {
	Server  fileServer  `yaml:"server"`
	Storage fileStorage `yaml:"storage"`
	Presign filePresign `yaml:"presign"`
	Log     fileLog     `yaml:"log"`
}

type fileServer struct {
	Port int `yaml:"port"`
}

type fileStorage struct {
	AccountID    string `yaml:"account_id,omitempty"`
	AccessKeyID  string `yaml:"access_key_id"`
	SecretKey    string `yaml:"secret_key,omitempty"`
	Bucket       string `yaml:"bucket"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	Signer       string `yaml:"signer"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

type filePresign struct {
	TTL                int    `yaml:"ttl"`
	DefaultContentType string `yaml:"default_content_type"`
}

type fileLog struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// initAnswers are the values collected by the prompts.
type initAnswers struct {
	AccountID   string
	AccessKeyID string
	SecretKey   string
	Bucket      string
	Endpoint    string
}

func newFileConfig(a initAnswers) fileConfig {
	return fileConfig{
		Server: fileServer{Port: 8080},
		Storage: fileStorage{
			AccountID:    strings.TrimSpace(a.AccountID),
			AccessKeyID:  strings.TrimSpace(a.AccessKeyID),
			SecretKey:    a.SecretKey,
			Bucket:       strings.TrimSpace(a.Bucket),
			Endpoint:     strings.TrimSuffix(strings.TrimSpace(a.Endpoint), "/"),
			Signer:       signer.TypeAWSV4,
			UsePathStyle: true,
		},
		Presign: filePresign{
			TTL:                int(presignd.DefaultTTL.Seconds()),
			DefaultContentType: presignd.DefaultContentType,
		},
		Log: fileLog{Level: "info", Format: "text"},
	}
}

// writeConfigFile writes cfg as YAML with owner-only permissions.
func writeConfigFile(path string, cfg fileConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "config.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite", path),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	answers, err := promptAnswers()
	if err != nil {
		return handlePromptError(cmd, err)
	}

	if err := writeConfigFile(path, newFileConfig(answers)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func promptAnswers() (initAnswers, error) {
	var a initAnswers
	var err error

	endpointPrompt := promptui.Prompt{
		Label: "Endpoint URL (empty for Cloudflare R2)",
		Validate: func(input string) error {
			if input == "" {
				return nil
			}
			u, parseErr := url.Parse(input)
			if parseErr != nil {
				return fmt.Errorf("invalid URL: %w", parseErr)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return errors.New("URL must start with http:// or https://")
			}
			return nil
		},
	}
	if a.Endpoint, err = endpointPrompt.Run(); err != nil {
		return a, err
	}

	if a.Endpoint == "" {
		accountPrompt := promptui.Prompt{
			Label:    "R2 Account ID",
			Validate: required("account id"),
		}
		if a.AccountID, err = accountPrompt.Run(); err != nil {
			return a, err
		}
	}

	accessKeyPrompt := promptui.Prompt{
		Label:    "Access Key ID",
		Validate: required("access key id"),
	}
	if a.AccessKeyID, err = accessKeyPrompt.Run(); err != nil {
		return a, err
	}

	secretKeyPrompt := promptui.Prompt{
		Label: "Secret Key (empty to read from environment)",
		Mask:  '*',
	}
	if a.SecretKey, err = secretKeyPrompt.Run(); err != nil {
		return a, err
	}

	bucketPrompt := promptui.Prompt{
		Label:    "Bucket",
		Validate: required("bucket"),
	}
	if a.Bucket, err = bucketPrompt.Run(); err != nil {
		return a, err
	}

	return a, nil
}

func required(name string) promptui.ValidateFunc {
	return func(input string) error {
		if strings.TrimSpace(input) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func handlePromptError(cmd *cobra.Command, err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}
	return err
}
