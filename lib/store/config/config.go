package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// --------------------------------------------------------------------------
// Store Configuration
// --------------------------------------------------------------------------

// StoreConfig carries the tunable settings of a secure store. The zero
// value means "use platform defaults": empty base paths defer to the
// platform provider, an empty log tag falls back to "secstore" and metrics
// stay disabled.
type StoreConfig struct {
	// BasePaths overrides the three replica base directories discovered by
	// the platform provider. All three must be set to take effect.
	BasePaths [3]string
	// LogTag is the tag the facade logs under.
	LogTag string
	// MetricsEnabled turns on the skv_* operation counters.
	MetricsEnabled bool
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() *StoreConfig {
	return &StoreConfig{
		LogTag:         "secstore",
		MetricsEnabled: false,
	}
}

// --------------------------------------------------------------------------
// Configuration Loading
// --------------------------------------------------------------------------

// InitConfig initializes configuration from env files and environment
// variables. Variables use the SKV_ prefix with dashes mapped to
// underscores, e.g. SKV_METRICS_ENABLED=true. An optional YAML config file
// can be named via SKV_CONFIG_FILE.
func InitConfig() error {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("skv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if file := viper.GetString("config-file"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "config: cannot read config file %s", file)
		}
	}
	return nil
}

// GetStoreConfig reads the store configuration from viper, falling back to
// defaults for unset keys.
func GetStoreConfig() *StoreConfig {
	conf := DefaultConfig()

	if tag := viper.GetString("log-tag"); tag != "" {
		conf.LogTag = tag
	}
	conf.MetricsEnabled = viper.GetBool("metrics-enabled")

	paths := [3]string{
		viper.GetString("base-path-0"),
		viper.GetString("base-path-1"),
		viper.GetString("base-path-2"),
	}
	if paths[0] != "" && paths[1] != "" && paths[2] != "" {
		conf.BasePaths = paths
	}

	return conf
}
