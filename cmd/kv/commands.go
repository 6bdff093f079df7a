package kv

import (
	"fmt"

	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/spf13/cobra"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			return withDB(cmd, func(d *db.DB) error {
				if err := d.Put(key, []byte(value)); err != nil {
					return err
				}
				fmt.Println("put successfully")
				return nil
			})
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return withDB(cmd, func(d *db.DB) error {
				resp, ok, err := d.Get(key)
				if err != nil {
					return err
				}
				fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
				return nil
			})
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return withDB(cmd, func(d *db.DB) error {
				if err := d.Delete(key); err != nil {
					return err
				}
				fmt.Println("delete successfully")
				return nil
			})
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return withDB(cmd, func(d *db.DB) error {
				found, err := d.Has(key)
				if err != nil {
					return err
				}
				fmt.Printf("key=%s, found=%t\n", key, found)
				return nil
			})
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys [prefix]",
		Short: "Lists the keys starting with a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return withDB(cmd, func(d *db.DB) error {
				keys, err := d.Keys(prefix)
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Println(k)
				}
				return nil
			})
		},
	}
	flushCmd = &cobra.Command{
		Use:   "flush",
		Short: "Writes the memtable to the table file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(d *db.DB) error {
				if err := d.Flush(); err != nil {
					return err
				}
				fmt.Println("flush successfully")
				return nil
			})
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints the statistics of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(d *db.DB) error {
				s, err := d.Stats()
				if err != nil {
					return err
				}
				fmt.Printf("identity=%s, path=%s\n", d.Identity(), d.Path())
				fmt.Print(s.String())
				return nil
			})
		},
	}
)
