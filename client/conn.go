package client

import (
	"context"
	"time"

	"github.com/relmq/relmq/manager"
)

// Conn is a broker connection bound to a Backend. It has no state of its
// own beyond the backend reference; Queue and Topic handles are cheap to
// create and need not be cached by the caller.
type Conn struct {
	backend Backend
}

// Dial wraps backend in a Conn. Use an in-process *manager.Manager for a
// local broker, or an *rpc.Client for a remote one.
func Dial(backend Backend) *Conn {
	return &Conn{backend: backend}
}

// Queue returns a handle bound to the named queue.
func (c *Conn) Queue(name string) *Queue {
	return &Queue{conn: c, name: name}
}

// Topic returns a handle bound to the named topic.
func (c *Conn) Topic(name string) *Topic {
	return &Topic{conn: c, name: name}
}

// Begin opens a new transaction with a deadline of now+timeout.
func (c *Conn) Begin(ctx context.Context, timeout time.Duration) (*Tx, error) {
	id, err := c.backend.Begin(ctx, timeout)
	if err != nil {
		return nil, err
	}
	return &Tx{conn: c, id: id}, nil
}

// Stats reports queue depths and the open transaction count for the
// given queues, per manager.Manager.Stats.
func (c *Conn) Stats(ctx context.Context, queues []string) (manager.Stats, error) {
	return c.backend.Stats(ctx, queues)
}
