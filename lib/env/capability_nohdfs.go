//go:build !hdfs

package env

const hdfsCompiledIn = false
