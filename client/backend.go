package client

import (
	"context"
	"time"

	"github.com/relmq/relmq/manager"
	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
)

// Backend is the set of broker operations a Conn forwards to. A
// *manager.Manager satisfies it directly for in-process use; an
// *rpc.Client satisfies it for a remote broker.
type Backend interface {
	Put(ctx context.Context, queue string, body []byte, headers map[string]message.Value, opts manager.PutOptions, tid string) (string, error)
	Publish(ctx context.Context, topic string, body []byte, headers map[string]message.Value, opts manager.PublishOptions) error
	List(ctx context.Context, queue string) ([]message.Message, error)
	Dequeue(ctx context.Context, queue string, sel selector.Selector, tid string) (*message.Message, error)
	Retrieve(ctx context.Context, topic string, seen string, sel selector.Selector) (*message.Message, error)
	Begin(ctx context.Context, timeout time.Duration) (string, error)
	Commit(ctx context.Context, tid string) error
	Abort(ctx context.Context, tid string) error
	Empty(ctx context.Context, queue string) (int64, error)
	Stats(ctx context.Context, queues []string) (manager.Stats, error)
}
