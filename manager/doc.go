// Package manager implements the broker's transactional queue and topic
// semantics on top of a store.MessageStore backend.
//
// Manager is the only component aware of locking, delivery modes,
// expiration, and transactions; every store.MessageStore implementation
// is deliberately ignorant of these concerns; Manager is what makes them
// behave identically regardless of backend.
//
// # Locking
//
// A single coarse-grained mutex protects the lock set (ids currently
// dequeued by some in-flight caller), the transaction table, and any
// read-modify-write sequence against the store. Body reads and DLQ
// housekeeping happen outside the lock once a candidate message has been
// chosen and marked locked.
//
// # Transactions
//
// Begin opens a transaction with a deadline; Put/Dequeue stage their
// effects into it instead of applying them immediately. Commit applies
// every staged insert and delete through one store transaction and
// releases the locks held by its deletes. Abort releases locks and bumps
// each deleted message's redelivery counter, discarding staged inserts
// entirely. A background reaper aborts any transaction past its
// deadline.
//
// # Process lifecycle
//
// At most one Manager may be active per process. Start activates the
// backing store and launches the reaper; Stop tears both down. Starting
// a second Manager while one is active fails with
// relmq.ErrManagerAlreadyStarted.
package manager
