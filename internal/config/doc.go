// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config.yaml. Settings are
// decoded with viper into typed structs and checked with validator, so the
// rest of the application receives either a complete configuration or an
// error naming the offending field.
package config
