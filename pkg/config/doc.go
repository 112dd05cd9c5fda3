// Package config loads application configuration from the environment,
// with an optional YAML overlay for deployment-managed settings.
package config
