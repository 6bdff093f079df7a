package kv

import (
	"github.com/ValentinKolb/eKV/cmd/util"
	"github.com/ValentinKolb/eKV/lib/common"
	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/spf13/cobra"
)

var (
	config *common.Config

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value operations on a database",
		PersistentPreRunE: setupKV,
	}
)

func init() {
	// Add database flags to the KV command
	util.SetupDBFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(flushCmd)
	KeyValueCommands.AddCommand(statsCmd)
}

// setupKV reads the configuration and initializes logging
func setupKV(cmd *cobra.Command, _ []string) (err error) {
	config, err = util.Setup(cmd)
	return err
}

// withDB constructs the environment, opens the database, runs fn and
// releases everything again.
func withDB(cmd *cobra.Command, fn func(*db.DB) error) error {
	h, err := util.ConstructEnv(cmd.Context(), config)
	if err != nil {
		return err
	}
	defer func() { _ = h.Release() }()

	opts, err := config.ToDBOptions(h)
	if err != nil {
		return err
	}
	if err := db.WithDB(opts, config.DBPath, fn); err != nil {
		return err
	}
	util.WriteMetrics(config)
	return nil
}
