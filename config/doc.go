// Package config loads the broker's YAML configuration file and builds
// the concrete components it describes: a store.MessageStore backend
// (disk or MySQL) and an rpc.ACL for the drb (distributed relmq broker)
// listener.
package config
