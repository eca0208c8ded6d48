package rpc

import (
	"io"
	netrpc "net/rpc"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// serverCodec implements net/rpc.ServerCodec over a single connection
// using msgpack's self-delimiting wire format, the same streaming shape
// the stdlib gob codec uses internally.
type serverCodec struct {
	conn io.ReadWriteCloser
	dec  *msgpack.Decoder
	enc  *msgpack.Encoder
	mu   sync.Mutex
}

func newServerCodec(conn io.ReadWriteCloser) netrpc.ServerCodec {
	return &serverCodec{
		conn: conn,
		dec:  msgpack.NewDecoder(conn),
		enc:  msgpack.NewEncoder(conn),
	}
}

func (c *serverCodec) ReadRequestHeader(r *netrpc.Request) error {
	return c.dec.Decode(r)
}

func (c *serverCodec) ReadRequestBody(body any) error {
	if body == nil {
		body = &struct{}{}
	}
	return c.dec.Decode(body)
}

func (c *serverCodec) WriteResponse(r *netrpc.Response, body any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(r); err != nil {
		return err
	}
	return c.enc.Encode(body)
}

func (c *serverCodec) Close() error {
	return c.conn.Close()
}

// clientCodec is serverCodec's mirror image on the dialing side.
type clientCodec struct {
	conn io.ReadWriteCloser
	dec  *msgpack.Decoder
	enc  *msgpack.Encoder
	mu   sync.Mutex
}

func newClientCodec(conn io.ReadWriteCloser) netrpc.ClientCodec {
	return &clientCodec{
		conn: conn,
		dec:  msgpack.NewDecoder(conn),
		enc:  msgpack.NewEncoder(conn),
	}
}

func (c *clientCodec) WriteRequest(r *netrpc.Request, body any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(r); err != nil {
		return err
	}
	return c.enc.Encode(body)
}

func (c *clientCodec) ReadResponseHeader(r *netrpc.Response) error {
	return c.dec.Decode(r)
}

func (c *clientCodec) ReadResponseBody(body any) error {
	if body == nil {
		body = &struct{}{}
	}
	return c.dec.Decode(body)
}

func (c *clientCodec) Close() error {
	return c.conn.Close()
}
