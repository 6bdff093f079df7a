package util

import (
	"context"
	"fmt"
	"os"
	"strings"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/eKV/lib/common"
	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/ValentinKolb/eKV/lib/env/registry"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupEnvFlags adds the flags that select and configure the environment
func SetupEnvFlags(cmd *cobra.Command) {
	key := "env"
	cmd.PersistentFlags().String(key, "", WrapString("The environment to use: a local directory (empty = working directory) or <scheme>://<args>, e.g. mem://, hdfs://namenode:8020/data"))

	key = "remote-timeout"
	cmd.PersistentFlags().Int64(key, 10, WrapString("Timeout in seconds for connecting to remote environments (0 = no timeout)"))

	key = "background-threads"
	cmd.PersistentFlags().Int(key, 0, WrapString("Size of the background thread pool of local environments (0 = number of CPUs)"))
}

// SetupDBFlags adds the flags that configure the database
func SetupDBFlags(cmd *cobra.Command) {
	key := "db"
	cmd.PersistentFlags().String(key, "ekv-data", WrapString("The database directory inside the environment"))

	key = "create-if-missing"
	cmd.PersistentFlags().Bool(key, true, WrapString("Create the database if it does not exist"))

	key = "error-if-exists"
	cmd.PersistentFlags().Bool(key, false, WrapString("Fail if the database already exists"))

	key = "paranoid-checks"
	cmd.PersistentFlags().Bool(key, false, WrapString("Report a damaged write-ahead log as corruption instead of dropping the damaged tail"))

	key = "sync"
	cmd.PersistentFlags().Bool(key, false, WrapString("Sync the write-ahead log after every write"))

	key = "write-buffer-size"
	cmd.PersistentFlags().Int(key, 4<<20, WrapString("Size of the write-ahead log in bytes after which the memtable is flushed to the table"))

	key = "compression"
	cmd.PersistentFlags().String(key, "none", WrapString("Compression of the table file (none, snappy, zstd, lz4)"))
}

// InitConfig loads .env files, an optional config file and environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("ekv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", file, err)
			os.Exit(1)
		}
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetConfig reads the configuration from viper
func GetConfig() *common.Config {
	return &common.Config{
		EnvURI:              viper.GetString("env"),
		DBPath:              viper.GetString("db"),
		CreateIfMissing:     viper.GetBool("create-if-missing"),
		ErrorIfExists:       viper.GetBool("error-if-exists"),
		ParanoidChecks:      viper.GetBool("paranoid-checks"),
		Sync:                viper.GetBool("sync"),
		WriteBufferSize:     viper.GetInt("write-buffer-size"),
		Compression:         viper.GetString("compression"),
		RemoteTimeoutSecond: viper.GetInt64("remote-timeout"),
		BackgroundThreads:   viper.GetInt("background-threads"),
		LogLevel:            viper.GetString("log-level"),
		Metrics:             viper.GetBool("metrics"),
	}
}

// Setup binds the flags of cmd, initializes the loggers and returns the configuration
func Setup(cmd *cobra.Command) (*common.Config, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	config := GetConfig()
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}
	return config, nil
}

// ConstructEnv constructs the environment selected by the configuration.
// The handle is never nil; a failed handle carries the returned error.
func ConstructEnv(ctx context.Context, config *common.Config) (*env.Handle, error) {
	return registry.New(config.ToRegistryOptions()).ConstructURI(ctx, config.EnvURI)
}

// WriteMetrics prints the process metrics in Prometheus text format if enabled
func WriteMetrics(config *common.Config) {
	if config.Metrics {
		vm.WritePrometheus(os.Stdout, true)
	}
}
