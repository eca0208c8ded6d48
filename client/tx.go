package client

import "context"

// Tx is an explicit transaction handle returned by Conn.Begin. It is
// passed explicitly to Queue/Topic calls that should be staged into it
// rather than applied immediately; a nil *Tx means "no transaction".
type Tx struct {
	conn *Conn
	id   string
}

// ID returns the transaction id the backend assigned.
func (t *Tx) ID() string { return t.id }

// Commit applies every operation staged into t atomically.
func (t *Tx) Commit(ctx context.Context) error {
	return t.conn.backend.Commit(ctx, t.id)
}

// Abort discards every operation staged into t and releases its locks.
func (t *Tx) Abort(ctx context.Context) error {
	return t.conn.backend.Abort(ctx, t.id)
}

func tidOf(tx *Tx) string {
	if tx == nil {
		return ""
	}
	return tx.id
}
