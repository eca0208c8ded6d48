package relmq

import "errors"

// Sentinel errors forming the error taxonomy described by SPEC_FULL.md
// §7. Components wrap these with fmt.Errorf("%w: ...") to add
// call-site context while remaining matchable with errors.Is, the same
// idiom the teacher uses for ErrJobLost/ErrLockLost/ErrCompleteFailed.
var (
	// ErrInvalidArgument covers a missing/empty queue or topic name, an
	// invalid header name or value, a non-integer timeout or expires
	// argument, or a malformed selector.
	ErrInvalidArgument = errors.New("relmq: invalid argument")

	// ErrNoSuchTransaction is returned when an operation references a
	// transaction id that is closed or never existed.
	ErrNoSuchTransaction = errors.New("relmq: no such transaction")

	// ErrManagerAlreadyStarted is returned by Start on a process that
	// already has an active manager.
	ErrManagerAlreadyStarted = errors.New("relmq: manager already started")

	// ErrManagerNotStarted is returned by Stop, or any operation
	// requiring a running manager, when none is active.
	ErrManagerNotStarted = errors.New("relmq: manager not started")

	// ErrStoreUnavailable is returned when a backend fails to activate:
	// a disk path is not a directory, the master index cannot be
	// written, or a database is unreachable.
	ErrStoreUnavailable = errors.New("relmq: store unavailable")

	// ErrStoreCorrupt is returned by recovery when an index or body
	// cannot be deserialized.
	ErrStoreCorrupt = errors.New("relmq: store corrupt")

	// ErrRemoteUnavailable is returned by an RPC client after its
	// configured retry budget is exhausted.
	ErrRemoteUnavailable = errors.New("relmq: remote unavailable")

	// ErrTransactionAborted is returned when the reaper or a store
	// failure forces a transaction to abort out from under the caller.
	ErrTransactionAborted = errors.New("relmq: transaction aborted")
)
