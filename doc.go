// Package relmq provides a transactional message broker core: priority
// queues with a dead-letter sink, last-value topics, and a pluggable
// storage backend.
//
// # Overview
//
// relmq separates transport data (message.Message, selector.Selector)
// from delivery state, which lives entirely inside the manager package's
// in-memory lock set and transaction table. A storage backend
// (diskstore or sqlstore) persists queue and topic contents but never
// interprets locking, expiration, or delivery modes; that logic belongs
// to manager.Manager alone, so every backend behaves identically from
// the caller's point of view.
//
// # Delivery Semantics
//
// Three delivery modes govern what happens to a message a consumer
// never acknowledges:
//
//   - best_effort: the message is discarded once expired or exhausted.
//   - repeated: the message is redelivered until exhausted, then routed
//     to the dead-letter queue ($dlq).
//   - once: when dequeued under a transaction, the message is moved to
//     $dlq immediately; an abort leaves it there, so it is never
//     redelivered to its origin queue.
//
// # Transactions
//
// Operations may be grouped under an explicit transaction id obtained
// from Begin. Commit applies staged inserts and deletes atomically
// through a single store transaction; Abort releases locks and bumps
// the redelivery counter on everything it dequeued. A background reaper
// aborts any transaction that outlives its deadline.
//
// # Interfaces
//
// relmq's sentinel errors (errors.go) describe the taxonomy every
// component reports through. manager.Manager returns most of them; the
// storage backends wrap ErrStoreCorrupt, config wraps
// ErrInvalidArgument, and the rpc client wraps ErrRemoteUnavailable.
//
// # Concurrency Model
//
// manager.Manager serializes structural mutation behind a single
// coarse-grained lock, matching the model spec.md's concurrency section
// describes: short critical sections around lock-set and cache
// mutation, with body reads and DLQ housekeeping performed outside the
// lock.
//
// # Storage Expectations
//
// Both diskstore and sqlstore guarantee that a store-level transaction
// either fully applies or leaves prior state entirely intact, even
// across a process crash between writing new state and making it
// visible.
package relmq
