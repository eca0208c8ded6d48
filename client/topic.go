package client

import (
	"context"

	"github.com/relmq/relmq/manager"
	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
)

// Topic is a handle bound to a single topic name.
type Topic struct {
	conn *Conn
	name string
}

// Name returns the topic's name.
func (t *Topic) Name() string { return t.name }

// Publish replaces the topic's current entry with body and headers.
func (t *Topic) Publish(ctx context.Context, body []byte, headers map[string]message.Value, opts manager.PublishOptions) error {
	return t.conn.backend.Publish(ctx, t.name, body, headers, opts)
}

// Retrieve returns the topic's current message iff its id differs from
// seen, or nil if the topic is empty, unchanged, or expired.
func (t *Topic) Retrieve(ctx context.Context, seen string) (*message.Message, error) {
	return t.conn.backend.Retrieve(ctx, t.name, seen, selector.Any{})
}
