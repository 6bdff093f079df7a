// Package cmd implements the command-line interface for the eKV embedded
// key-value store. It provides a hierarchical command structure for working
// with databases and inspecting the available storage environments.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value operations on a database (put, get, del, etc.)
//   - backend: Commands for inspecting storage environments (caps, check, options)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through an environment variable of the form
// EKV_<flag> (e.g. EKV_WRITE_BUFFER_SIZE=1048576), a .env file or a config file.
//
// See ekv -help for a list of all commands.
package cmd
