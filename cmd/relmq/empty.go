package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relmq/relmq/config"
)

func emptyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "empty <queue>",
		Short: "Remove every message from a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			client, err := dialManager(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := client.Empty(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d message(s) from %s\n", n, args[0])
			return nil
		},
	}
}
