package manager

import (
	"time"

	"github.com/relmq/relmq/store"
)

// txState tracks a transaction through the state machine described by
// spec.md §4.5.8: open -> committing -> closed, or open -> aborting ->
// closed. closed is terminal; a commit or abort against a closed id is
// reported as relmq.ErrNoSuchTransaction.
type txState uint8

const (
	txOpen txState = iota
	txCommitting
	txAborting
	txClosed
)

// stagedDelete is a delete staged by Dequeue. onceRouted marks a
// delivery=once message that was already moved to the dead-letter queue
// at dequeue time; on Abort such a delete must not bump redelivery (the
// message simply stays in the DLQ, per spec.md §4.5.4/§4.5.6).
type stagedDelete struct {
	store.Delete
	onceRouted bool
}

// transaction accumulates the inserts and deletes staged by Put and
// Dequeue calls made under its id, until Commit or Abort resolves it.
type transaction struct {
	id       string
	deadline time.Time
	state    txState

	inserts []store.Insert
	deletes []stagedDelete
}
