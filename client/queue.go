package client

import (
	"context"

	"github.com/relmq/relmq/manager"
	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
)

// Queue is a handle bound to a single queue name.
type Queue struct {
	conn *Conn
	name string
}

// Name returns the queue's name.
func (q *Queue) Name() string { return q.name }

// Put enqueues body with headers, staging the insert into tx if tx is
// non-nil, or applying it immediately otherwise. It returns the
// generated message id.
func (q *Queue) Put(ctx context.Context, body []byte, headers map[string]message.Value, opts manager.PutOptions, tx *Tx) (string, error) {
	return q.conn.backend.Put(ctx, q.name, body, headers, opts, tidOf(tx))
}

// List returns the queue's current headers, cloned.
func (q *Queue) List(ctx context.Context) ([]message.Message, error) {
	return q.conn.backend.List(ctx, q.name)
}

// Dequeue returns the first message satisfying sel, or nil if none is
// available. A nil sel matches anything (selector.Any{}). If tx is
// non-nil, the eventual delete is staged into it instead of being
// applied immediately and the message stays locked until tx is
// committed or aborted.
func (q *Queue) Dequeue(ctx context.Context, sel selector.Selector, tx *Tx) (*message.Message, error) {
	if sel == nil {
		sel = selector.Any{}
	}
	return q.conn.backend.Dequeue(ctx, q.name, sel, tidOf(tx))
}

// Find evaluates pred locally over the queue's current header snapshot
// (via List) and, on the first match, resubmits it as a selector.ID
// through Dequeue — the client-side predicate form described in
// spec.md §4.1. It returns nil if no header matches or the matched
// message is gone by the time the id-literal Dequeue runs (a normal
// race against a concurrent consumer, not an error).
func (q *Queue) Find(ctx context.Context, pred Predicate, tx *Tx) (*message.Message, error) {
	headers, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		if pred(newHeaders(h.Id, h.Headers)) {
			return q.Dequeue(ctx, selector.ID{Value: h.Id}, tx)
		}
	}
	return nil, nil
}

// Empty removes every message from the queue, including locked ones.
func (q *Queue) Empty(ctx context.Context) (int64, error) {
	return q.conn.backend.Empty(ctx, q.name)
}
