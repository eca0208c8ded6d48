package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relmq/relmq/config"
	"github.com/relmq/relmq/manager"
	"github.com/relmq/relmq/rpc"
)

var pidFile string

func managerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manager",
		Short: "Start or stop the broker's manager process",
	}
	cmd.PersistentFlags().StringVar(&pidFile, "pidfile", "/var/run/relmq.pid", "path to the manager's pid file")
	cmd.AddCommand(managerStartCmd(), managerStopCmd())
	return cmd
}

func managerStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the manager and its RPC listener in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManager(cmd.Context())
		},
	}
}

func runManager(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("relmq: load config: %w", err)
	}
	backend, err := cfg.BuildStore()
	if err != nil {
		return fmt.Errorf("relmq: build store: %w", err)
	}
	if err := backend.Setup(ctx); err != nil {
		return fmt.Errorf("relmq: setup store: %w", err)
	}
	acl, err := cfg.BuildACL()
	if err != nil {
		return fmt.Errorf("relmq: build acl: %w", err)
	}

	log := slog.Default()
	mgr := manager.New(backend, log)
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("relmq: start manager: %w", err)
	}

	srv, err := rpc.NewServer(mgr, acl, log)
	if err != nil {
		return fmt.Errorf("relmq: create rpc server: %w", err)
	}
	if err := srv.ListenAndServe(cfg.ListenAddr()); err != nil {
		return fmt.Errorf("relmq: listen: %w", err)
	}
	log.Info("manager started", "addr", srv.Addr().String())

	if err := writePidFile(); err != nil {
		log.Warn("could not write pid file", "path", pidFile, "err", err)
	}
	defer os.Remove(pidFile)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Info("manager shutting down")
	if err := srv.Stop(5 * time.Second); err != nil {
		log.Warn("rpc server stop error", "err", err)
	}
	return mgr.Stop(context.Background(), 30*time.Second)
}

func writePidFile() error {
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func managerStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Signal a running manager process (identified by --pidfile) to shut down",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(pidFile)
			if err != nil {
				return fmt.Errorf("relmq: read pid file %s: %w", pidFile, err)
			}
			pid, err := strconv.Atoi(string(data))
			if err != nil {
				return fmt.Errorf("relmq: pid file %s: %w", pidFile, err)
			}
			proc, err := os.FindProcess(pid)
			if err != nil {
				return err
			}
			return proc.Signal(syscall.SIGTERM)
		},
	}
}
