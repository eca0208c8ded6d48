package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relmq/relmq/config"
)

func installCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Provision a storage backend's on-disk/database resources",
	}
	cmd.AddCommand(installDiskCmd(), installMySQLCmd())
	return cmd
}

func installDiskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disk [path]",
		Short: "Create the directory a disk-backed store uses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "relmq-data"
			if len(args) == 1 {
				path = args[0]
			}
			cfg := &config.Config{Store: config.StoreConfig{Type: config.StoreDisk, Path: path}}
			return install(cmd.Context(), cfg)
		},
	}
}

func installMySQLCmd() *cobra.Command {
	var port int
	var socket, prefix string

	cmd := &cobra.Command{
		Use:   "mysql <host> <user> <pass> <db>",
		Short: "Create the relmq_queues/relmq_topics schema in a MySQL database",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.Config{Store: config.StoreConfig{
				Type:     config.StoreMySQL,
				Host:     args[0],
				Username: args[1],
				Password: args[2],
				Database: args[3],
				Port:     port,
				Socket:   socket,
				Prefix:   prefix,
			}}
			return install(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 3306, "MySQL TCP port")
	cmd.Flags().StringVar(&socket, "socket", "", "MySQL Unix socket path (overrides host/port)")
	cmd.Flags().StringVar(&prefix, "prefix", "relmq_", "table name prefix (not applied: tables are always relmq_queues/relmq_topics)")
	return cmd
}

func install(ctx context.Context, cfg *config.Config) error {
	backend, err := cfg.BuildStore()
	if err != nil {
		return err
	}
	if err := backend.Setup(ctx); err != nil {
		return fmt.Errorf("relmq: install: %w", err)
	}
	fmt.Println("store provisioned")
	return nil
}
