package backend

import (
	"fmt"

	"github.com/ValentinKolb/eKV/cmd/util"
	"github.com/ValentinKolb/eKV/lib/common"
	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/spf13/cobra"
)

var (
	config *common.Config

	// EnvCommands represents the environment command group
	EnvCommands = &cobra.Command{
		Use:               "env",
		Short:             "Inspect storage environments",
		PersistentPreRunE: setupEnv,
	}

	capsCmd = &cobra.Command{
		Use:   "caps",
		Short: "Lists the backends and whether they are compiled in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caps := env.Capabilities()
			for _, b := range env.Backends() {
				fmt.Printf("%-8s compiled=%t remote=%t\n", b, caps[b], b.Remote())
			}
			return nil
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check [uri]",
		Short: "Constructs an environment and releases it again (default: the one selected with --env)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				config.EnvURI = args[0]
			}
			h, err := util.ConstructEnv(cmd.Context(), config)
			if err != nil {
				return err
			}
			fmt.Printf("constructed %s\n", h)
			if err := h.Release(); err != nil {
				return err
			}
			util.WriteMetrics(config)
			return nil
		},
	}

	optionsCmd = &cobra.Command{
		Use:   "options [path]",
		Short: "Prints the options a database was last opened with",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := util.ConstructEnv(cmd.Context(), config)
			if err != nil {
				return err
			}
			defer func() { _ = h.Release() }()

			e, drop, err := h.Acquire()
			if err != nil {
				return err
			}
			defer drop()

			opts, err := db.ReadOptions(e, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("create_if_missing=%t error_if_exists=%t paranoid_checks=%t sync=%t write_buffer_size=%d compression=%s\n",
				opts.CreateIfMissing, opts.ErrorIfExists, opts.ParanoidChecks, opts.Sync, opts.WriteBufferSize, opts.Compression)
			return nil
		},
	}
)

func init() {
	EnvCommands.AddCommand(capsCmd)
	EnvCommands.AddCommand(checkCmd)
	EnvCommands.AddCommand(optionsCmd)
}

// setupEnv reads the configuration and initializes logging
func setupEnv(cmd *cobra.Command, _ []string) (err error) {
	config, err = util.Setup(cmd)
	return err
}
