// Command relmq is the administrative CLI for a relmq broker: starting
// and stopping the manager process, inspecting and clearing queues, and
// provisioning a storage backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "relmq",
		Short: "Administer a relmq transactional message broker",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "relmq.yaml", "path to the broker's config.yaml")
	root.AddCommand(managerCmd(), listCmd(), emptyCmd(), installCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
