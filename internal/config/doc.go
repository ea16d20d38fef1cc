// Package config loads, normalizes, and validates siphon configuration.
//
// Configuration comes from three layers, highest priority first:
//  1. SIPHON_* environment variables
//  2. the TOML config file (--config flag, then ~/.config/siphon/config.toml,
//     then ./siphon.toml)
//  3. built-in defaults
//
// All managed filesystem locations are derived from data_root through
// methods on Config so that nothing in the program writes to an arbitrary
// path.
package config
