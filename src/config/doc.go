// Package config defines the configuration for a murmur node.
//
// Regardless of how murmur is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. The data
// directory, defined by Config.DataDir, is only searched for an optional
// config file (murmur.toml, .yaml, or .json); the protocol itself takes no
// configuration, since the harness assigns the node its identity at runtime.
package config
