// Package config loads and validates the remotegate configuration.
//
// Configuration comes from three layers, later layers overriding
// earlier ones:
//
//  1. Hardcoded defaults
//  2. The YAML configuration file
//  3. REMOTEGATE_* environment variables
//
// Secrets (auth tokens, JWT secret, broker credentials) should be
// supplied through the environment rather than committed to the file.
package config
