// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file ($XDG_CONFIG_HOME/priotodo/priotodo.toml or the OS equivalent)
// 3. Project config file (priotodo.toml or .priotodo.toml in the working directory)
// 4. An explicit file passed with --config
// 5. Environment variables (PRIOTODO_*)
// 6. CLI flags, applied by the caller
//
// Each level overrides the previous one.
package config
