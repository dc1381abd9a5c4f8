// Package config provides configuration loading and validation for presignd.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (PRESIGND_ prefix, or the R2_* names)
//  4. CLI flags
//
// .env files are not read by Load; call LoadEnvFiles first.
//
// # Environment Variables
//
// All config keys map to environment variables with PRESIGND_ prefix:
//   - server.port → PRESIGND_SERVER_PORT
//   - storage.secret_key → PRESIGND_STORAGE_SECRET_KEY
//   - presign.ttl → PRESIGND_PRESIGN_TTL
//
// The storage identity also accepts R2_ACCOUNT_ID, R2_ACCESS_KEY,
// R2_SECRET_KEY and R2_BUCKET.
//
// # Validation
//
// The account id (or an explicit endpoint), access key id, secret key and
// bucket are required. TTL must be 1-604800 seconds. Validation failures
// wrap presignd.ErrConfig.
package config
