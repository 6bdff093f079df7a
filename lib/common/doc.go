// Package common contains the configuration and logging setup shared by the
// command line tool.
//
// Every package of the module logs through github.com/lni/dragonboat/v4/logger
// under its own name. InitLoggers installs a factory that writes all of them
// to stderr in the format
//
//	2025/01/02 15:04:05 INFO  | db              | opened database ...
//
// and sets their level. Config collects the command line settings and
// converts them into registry.Options and db.Options.
package common
