package rpc

import (
	"context"
	"fmt"
	"net"
	netrpc "net/rpc"
	"time"

	"github.com/relmq/relmq"
	"github.com/relmq/relmq/manager"
	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
)

// DefaultConnectCount is the number of dial attempts Dial makes before
// giving up, absent an explicit ClientConfig.ConnectCount.
const DefaultConnectCount = 5

// ClientConfig configures Dial's connection and retry behavior.
type ClientConfig struct {
	// ConnectCount bounds the number of dial attempts. Zero selects
	// DefaultConnectCount.
	ConnectCount int
	Backoff      BackoffConfig
}

// Client is a remote broker handle satisfying client.Backend, so it can
// be passed to client.Dial exactly like an in-process *manager.Manager.
type Client struct {
	rc *netrpc.Client
}

// Dial connects to a Server at addr (network is typically "tcp"),
// retrying with an exponential backoff up to cfg.ConnectCount times.
func Dial(network, addr string, cfg ClientConfig) (*Client, error) {
	count := cfg.ConnectCount
	if count <= 0 {
		count = DefaultConnectCount
	}
	bc := backoffCounter{cfg.Backoff}

	var lastErr error
	for attempt := uint32(1); attempt <= uint32(count); attempt++ {
		if attempt > 1 {
			time.Sleep(bc.next(attempt - 1))
		}
		conn, err := net.Dial(network, addr)
		if err != nil {
			lastErr = err
			continue
		}
		return &Client{rc: netrpc.NewClientWithCodec(newClientCodec(conn))}, nil
	}
	return nil, fmt.Errorf("%w: %v", relmq.ErrRemoteUnavailable, lastErr)
}

// Close terminates the underlying connection.
func (c *Client) Close() error {
	return c.rc.Close()
}

func (c *Client) call(ctx context.Context, method string, args, reply any) error {
	call := c.rc.Go(method, args, reply, make(chan *netrpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-call.Done:
		return res.Error
	}
}

func (c *Client) Put(ctx context.Context, queue string, body []byte, headers map[string]message.Value, opts manager.PutOptions, tid string) (string, error) {
	var reply PutReply
	err := c.call(ctx, "Broker.Put", PutArgs{Queue: queue, Body: body, Headers: headers, Opts: opts, Tid: tid}, &reply)
	return reply.ID, err
}

func (c *Client) Publish(ctx context.Context, topic string, body []byte, headers map[string]message.Value, opts manager.PublishOptions) error {
	var reply PublishReply
	return c.call(ctx, "Broker.Publish", PublishArgs{Topic: topic, Body: body, Headers: headers, Opts: opts}, &reply)
}

func (c *Client) List(ctx context.Context, queue string) ([]message.Message, error) {
	var reply ListReply
	err := c.call(ctx, "Broker.List", ListArgs{Queue: queue}, &reply)
	return reply.Messages, err
}

func (c *Client) Dequeue(ctx context.Context, queue string, sel selector.Selector, tid string) (*message.Message, error) {
	var reply DequeueReply
	err := c.call(ctx, "Broker.Dequeue", DequeueArgs{Queue: queue, Sel: EncodeSelector(sel), Tid: tid}, &reply)
	return reply.Message, err
}

func (c *Client) Retrieve(ctx context.Context, topic string, seen string, sel selector.Selector) (*message.Message, error) {
	var reply RetrieveReply
	err := c.call(ctx, "Broker.Retrieve", RetrieveArgs{Topic: topic, Seen: seen, Sel: EncodeSelector(sel)}, &reply)
	return reply.Message, err
}

func (c *Client) Begin(ctx context.Context, timeout time.Duration) (string, error) {
	var reply BeginReply
	err := c.call(ctx, "Broker.Begin", BeginArgs{Timeout: timeout}, &reply)
	return reply.Tid, err
}

func (c *Client) Commit(ctx context.Context, tid string) error {
	var reply TxReply
	return c.call(ctx, "Broker.Commit", TxArgs{Tid: tid}, &reply)
}

func (c *Client) Abort(ctx context.Context, tid string) error {
	var reply TxReply
	return c.call(ctx, "Broker.Abort", TxArgs{Tid: tid}, &reply)
}

func (c *Client) Empty(ctx context.Context, queue string) (int64, error) {
	var reply EmptyReply
	err := c.call(ctx, "Broker.Empty", EmptyArgs{Queue: queue}, &reply)
	return reply.Count, err
}

func (c *Client) Stats(ctx context.Context, queues []string) (manager.Stats, error) {
	var reply StatsReply
	err := c.call(ctx, "Broker.Stats", StatsArgs{Queues: queues}, &reply)
	return reply.Stats, err
}
