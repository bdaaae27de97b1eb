// Package config loads the store configuration from env files, environment
// variables and an optional YAML config file.
//
// Configuration is optional: secstore.NewSecureStore accepts a nil config and falls
// back to platform defaults. Host applications that want to relocate the
// replica bases, rename the log tag or enable metrics set the SKV_*
// environment variables (or ship a .env file) and pass the result of
// GetStoreConfig to the store factory.
package config
