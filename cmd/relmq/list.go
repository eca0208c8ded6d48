package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relmq/relmq/config"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <queue>",
		Short: "List a queue's current headers",
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

			headers, err := client.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, h := range headers {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", h.Id, h.Headers)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d message(s)\n", len(headers))
			return nil
		},
	}
}
