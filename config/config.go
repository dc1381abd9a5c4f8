package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/presignd"
	"github.com/sagarc03/presignd/devstore/sqlite"
	presignhttp "github.com/sagarc03/presignd/http"
	"github.com/sagarc03/presignd/signer"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PRESIGND"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for presignd.
type Config struct {
	Server   ServerConfig           `mapstructure:"server"`
	Storage  StorageConfig          `mapstructure:"storage"`
	Presign  PresignConfig          `mapstructure:"presign"`
	CORS     presignhttp.CORSConfig `mapstructure:"cors"`
	Metrics  MetricsConfig          `mapstructure:"metrics"`
	Log      LogConfig              `mapstructure:"log"`
	Devstore DevstoreConfig         `mapstructure:"devstore"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"min=0"`
}

// StorageConfig identifies the bucket and the credential used to sign for it.
type StorageConfig struct {
	AccountID    string `mapstructure:"account_id" validate:"required_without=Endpoint"`
	AccessKeyID  string `mapstructure:"access_key_id" validate:"required"`
	SecretKey    string `mapstructure:"secret_key" validate:"required"`
	Bucket       string `mapstructure:"bucket" validate:"required"`
	Endpoint     string `mapstructure:"endpoint" validate:"omitempty,url"`
	Region       string `mapstructure:"region" validate:"required"`
	Signer       string `mapstructure:"signer" validate:"required,oneof=awsv4 minio"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// Credential returns the signing key pair.
func (s StorageConfig) Credential() presignd.Credential {
	return presignd.Credential{AccessKeyID: s.AccessKeyID, SecretKey: s.SecretKey}
}

// BucketRef returns the bucket identity.
func (s StorageConfig) BucketRef() presignd.Bucket {
	return presignd.Bucket{AccountID: s.AccountID, Name: s.Bucket, Endpoint: s.Endpoint}
}

// SignerConfig returns the options for signer.New.
func (s StorageConfig) SignerConfig() signer.Config {
	return signer.Config{
		Type:         s.Signer,
		Bucket:       s.BucketRef(),
		Credential:   s.Credential(),
		Region:       s.Region,
		UsePathStyle: s.UsePathStyle,
	}
}

// PresignConfig holds issuance defaults.
type PresignConfig struct {
	TTL                int    `mapstructure:"ttl" validate:"min=1,max=604800"`
	DefaultContentType string `mapstructure:"default_content_type" validate:"required,max=255,printascii"`
}

// TTLDuration returns the TTL as a time.Duration.
func (p PresignConfig) TTLDuration() time.Duration {
	return time.Duration(p.TTL) * time.Second
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// DevstoreConfig configures the local S3-compatible development backend.
type DevstoreConfig struct {
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	StoragePath    string `mapstructure:"storage_path" validate:"required"`
	DBDSN          string `mapstructure:"db_dsn" validate:"required"`
	Table          string `mapstructure:"table" validate:"required"`
	KeysFile       string `mapstructure:"keys_file"`
	MaxObjectBytes int64  `mapstructure:"max_object_bytes" validate:"min=0"`
	CleanupTimeout int    `mapstructure:"cleanup_timeout" validate:"min=1"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":           "server.port",
	"bucket":         "storage.bucket",
	"endpoint":       "storage.endpoint",
	"signer":         "storage.signer",
	"ttl":            "presign.ttl",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"devstore-port":  "devstore.port",
	"devstore-path":  "devstore.storage_path",
	"devstore-db":    "devstore.db_dsn",
	"devstore-keys":  "devstore.keys_file",
	"metrics":        "metrics.enabled",
	"use-path-style": "storage.use_path_style",
}

// legacyEnv are the variable names used by earlier deployments.
var legacyEnv = map[string]string{
	"storage.account_id":    "R2_ACCOUNT_ID",
	"storage.access_key_id": "R2_ACCESS_KEY",
	"storage.secret_key":    "R2_SECRET_KEY",
	"storage.bucket":        "R2_BUCKET",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey, ok := flagToViperKey[f.Name]
		if !ok {
			return
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Prefixed names win over legacy names; BindEnv checks them in order.
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", presignhttp.DefaultMaxBodyBytes)

	v.SetDefault("storage.account_id", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", presignd.SigningRegion)
	v.SetDefault("storage.signer", signer.TypeAWSV4)
	v.SetDefault("storage.use_path_style", true)

	v.SetDefault("presign.ttl", int(presignd.DefaultTTL/time.Second))
	v.SetDefault("presign.default_content_type", presignd.DefaultContentType)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("devstore.port", 9000)
	v.SetDefault("devstore.storage_path", "./devdata")
	v.SetDefault("devstore.db_dsn", "devstore.db")
	v.SetDefault("devstore.table", sqlite.DefaultTable)
	v.SetDefault("devstore.keys_file", "")
	v.SetDefault("devstore.max_object_bytes", 0)
	v.SetDefault("devstore.cleanup_timeout", 30) // seconds
}

// LoadEnvFiles loads .env files into the process environment. Variables that
// are already set are not overridden. Missing files are ignored when
// optional is true.
func LoadEnvFiles(optional bool, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if optional {
				slog.Debug("env file not loaded", "file", f, "err", err)
				continue
			}
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	bindEnv(v)

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags and the bucket naming rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validate config: %w: %w", presignd.ErrConfig, err)
	}

	if !sqlite.IsValidTableName(cfg.Devstore.Table) {
		return fmt.Errorf("validate config: invalid devstore table %q: %w", cfg.Devstore.Table, presignd.ErrConfig)
	}

	return nil
}
