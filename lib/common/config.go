package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/ValentinKolb/eKV/lib/env/registry"
)

// Config holds the settings of the command line tool.
type Config struct {
	// Environment identifier: a local directory or <scheme>://<args>
	EnvURI string
	// Database directory inside the environment
	DBPath string

	// Database options
	CreateIfMissing bool
	ErrorIfExists   bool
	ParanoidChecks  bool
	Sync            bool
	WriteBufferSize int
	Compression     string

	// Registry settings
	RemoteTimeoutSecond int64
	BackgroundThreads   int

	// Observability
	LogLevel string
	Metrics  bool
}

// ToRegistryOptions converts the configuration to registry options
func (c *Config) ToRegistryOptions() registry.Options {
	return registry.Options{
		RemoteTimeout:     time.Duration(c.RemoteTimeoutSecond) * time.Second,
		BackgroundThreads: c.BackgroundThreads,
	}
}

// ToDBOptions converts the configuration to database options using the given environment
func (c *Config) ToDBOptions(h *env.Handle) (*db.Options, error) {
	compression, err := db.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	return &db.Options{
		CreateIfMissing: c.CreateIfMissing,
		ErrorIfExists:   c.ErrorIfExists,
		ParanoidChecks:  c.ParanoidChecks,
		Sync:            c.Sync,
		WriteBufferSize: c.WriteBufferSize,
		Compression:     compression,
		Env:             h,
	}, nil
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	envURI := c.EnvURI
	if envURI == "" {
		envURI = "(working directory)"
	}

	addSection("Environment")
	addField("URI", envURI)
	addField("Remote Timeout", fmt.Sprintf("%d sec", c.RemoteTimeoutSecond))
	addField("Background Threads", fmt.Sprintf("%d", c.BackgroundThreads))

	addSection("Database")
	addField("Path", c.DBPath)
	addField("Create If Missing", fmt.Sprintf("%t", c.CreateIfMissing))
	addField("Error If Exists", fmt.Sprintf("%t", c.ErrorIfExists))
	addField("Paranoid Checks", fmt.Sprintf("%t", c.ParanoidChecks))
	addField("Sync Writes", fmt.Sprintf("%t", c.Sync))
	addField("Write Buffer Size", fmt.Sprintf("%d bytes", c.WriteBufferSize))
	addField("Compression", c.Compression)

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Metrics", fmt.Sprintf("%t", c.Metrics))

	return sb.String()
}
