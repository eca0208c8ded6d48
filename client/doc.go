// Package client provides a thin façade over a broker backend — either
// an in-process *manager.Manager or a remote *rpc.Client — plus an
// optional Consumer loop for polling-based message handling.
//
// # Handles
//
// Conn.Queue and Conn.Topic return lightweight handles bound to a
// destination name. Queue.Put, Queue.Dequeue and Queue.Find accept an
// explicit *Tx (or nil): transaction scoping is always threaded through
// the call, never stashed on a goroutine-local, per the explicit-context
// Design Note. Queue.List, Queue.Empty, Topic.Publish and Topic.Retrieve
// take no *Tx and always run outside any transaction.
//
// # Client-side predicates
//
// The manager only evaluates the two selector forms it can persist
// cheaply (equality map, id literal). A general boolean expression over
// headers is evaluated here instead: Queue.Find pulls the current header
// list via List, evaluates a Predicate locally over each entry's
// Headers, and on a match resubmits selector.ID through Dequeue.
//
// # Consumer
//
// Consumer is additive convenience, not part of the manager's persisted
// contract: it polls a queue on an interval, dispatches matching
// messages to a Handler through a bounded worker pool, and commits or
// aborts the implicit transaction depending on the handler's result. It
// paces repeated empty polls with an exponential backoff, the same
// shape the teacher's Worker uses for its own pull loop.
package client
