// Package rpc exposes a *manager.Manager over the network using stdlib
// net/rpc with a custom msgpack wire codec (ClientCodec/ServerCodec),
// promoting the module's existing vmihailenco/msgpack/v5 dependency to
// a first-class transport rather than hand-writing gRPC stubs.
//
// Server registers one service, "Broker", with one method per
// manager.Manager operation (Put, Publish, List, Dequeue, Retrieve,
// Begin, Commit, Abort, Empty, Stats). Every destination name argument
// is lowercased before reaching the manager. An ACL gates inbound
// connections in Accept, before any RPC is even decoded.
//
// Client dials an endpoint and implements client.Backend, so it can be
// handed to client.Dial exactly like an in-process *manager.Manager;
// connection is retried with an exponential backoff up to ConnectCount
// attempts.
//
// The general client-side predicate selector form (spec.md §4.1) never
// crosses the wire: only the two forms the manager itself can evaluate
// — equality map and id literal — travel as a SelectorSpec, plus the
// always-match Any.
package rpc
