package store

import (
	"context"

	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
)

// DLQ is the reserved queue name serving as the dead-letter sink for
// every other destination.
const DLQ = "$dlq"

// Insert stages a new message for a queue (Queue non-empty) or a topic
// (Queue == ""; the destination name is carried by Topic instead).
type Insert struct {
	Queue   string
	Topic   string
	Message message.Message
}

// Delete stages removal of a message by id from a queue.
type Delete struct {
	Queue string
	ID    string
}

// Move stages relocation of a message by id from one queue into the
// dead-letter queue, preserving its headers and body.
type Move struct {
	FromQueue string
	ID        string
}

// TopicDelete stages removal of a topic's current entry, conditional on
// its id still being ID (a concurrent publish since the read that staged
// this must not be clobbered).
type TopicDelete struct {
	Topic string
	ID    string
}

// Batch is the set of staged mutations a MessageStore.Transaction
// callback populates; the store applies all lists atomically when the
// callback returns nil.
type Batch struct {
	Inserts      []Insert
	Deletes      []Delete
	DLQs         []Move
	TopicDeletes []TopicDelete
}

// MessageStore is the persistence contract every backend must satisfy.
//
// Implementations must guarantee that, once Transaction returns nil, all
// staged inserts/deletes/dlq-moves are durable; and that if Transaction
// returns a non-nil error (including one raised by the callback), no
// partial effect of the batch is observable — in-memory caches must be
// reloaded from the last durable image.
type MessageStore interface {
	// Setup idempotently creates on-disk/database resources required
	// before Activate can succeed.
	Setup(ctx context.Context) error

	// Activate acquires exclusive ownership of the backing resource and
	// loads (or initializes) the in-memory index.
	Activate(ctx context.Context) error

	// Deactivate releases resources acquired by Activate.
	Deactivate(ctx context.Context) error

	// Transaction invokes fn with a fresh Batch; whatever fn stages is
	// applied atomically if fn returns nil. If fn (or the apply step)
	// fails, the store reloads its cache from the last durable state and
	// returns the error.
	Transaction(ctx context.Context, fn func(batch *Batch) error) error

	// GetHeaders returns the current header list of queue, in
	// priority-descending, insertion-order-tiebroken order. Bodies are
	// not materialized.
	GetHeaders(ctx context.Context, queue string) ([]message.Message, error)

	// GetMessage returns the first header in queue satisfying sel, with
	// its body materialized, or nil if none matches.
	GetMessage(ctx context.Context, queue string, sel selector.Selector) (*message.Message, error)

	// GetLast returns topic's current message, with its body
	// materialized, iff its id differs from seen and it satisfies sel.
	// It returns nil if the topic is empty, unchanged, or non-matching.
	GetLast(ctx context.Context, topic string, seen string, sel selector.Selector) (*message.Message, error)
}
