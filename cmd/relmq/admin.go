package main

import (
	"time"

	"github.com/relmq/relmq/config"
	"github.com/relmq/relmq/rpc"
)

// dialManager connects to the broker described by cfg's drb section, on
// loopback — the CLI is meant to run alongside the manager process it
// administers.
func dialManager(cfg *config.Config) (*rpc.Client, error) {
	return rpc.Dial("tcp", "127.0.0.1"+cfg.ListenAddr(), rpc.ClientConfig{
		ConnectCount: 3,
		Backoff: rpc.BackoffConfig{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2,
		},
	})
}
