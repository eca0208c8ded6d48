package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	netrpc "net/rpc"
	"strings"
	"time"

	"github.com/relmq/relmq/internal"
	"github.com/relmq/relmq/manager"
)

// DefaultAddr is the listen address used when config omits drb.port.
const DefaultAddr = ":6438"

// brokerService adapts *manager.Manager to net/rpc's calling convention
// (two arguments, second a pointer, error return) and lowercases every
// destination name before it reaches the manager.
type brokerService struct {
	mgr *manager.Manager
}

func (b *brokerService) Put(args PutArgs, reply *PutReply) error {
	id, err := b.mgr.Put(context.Background(), strings.ToLower(args.Queue), args.Body, args.Headers, args.Opts, args.Tid)
	if err != nil {
		return err
	}
	reply.ID = id
	return nil
}

func (b *brokerService) Publish(args PublishArgs, reply *PublishReply) error {
	return b.mgr.Publish(context.Background(), strings.ToLower(args.Topic), args.Body, args.Headers, args.Opts)
}

func (b *brokerService) List(args ListArgs, reply *ListReply) error {
	msgs, err := b.mgr.List(context.Background(), strings.ToLower(args.Queue))
	if err != nil {
		return err
	}
	reply.Messages = msgs
	return nil
}

func (b *brokerService) Dequeue(args DequeueArgs, reply *DequeueReply) error {
	msg, err := b.mgr.Dequeue(context.Background(), strings.ToLower(args.Queue), args.Sel.Decode(), args.Tid)
	if err != nil {
		return err
	}
	reply.Message = msg
	return nil
}

func (b *brokerService) Retrieve(args RetrieveArgs, reply *RetrieveReply) error {
	msg, err := b.mgr.Retrieve(context.Background(), strings.ToLower(args.Topic), args.Seen, args.Sel.Decode())
	if err != nil {
		return err
	}
	reply.Message = msg
	return nil
}

func (b *brokerService) Begin(args BeginArgs, reply *BeginReply) error {
	tid, err := b.mgr.Begin(context.Background(), args.Timeout)
	if err != nil {
		return err
	}
	reply.Tid = tid
	return nil
}

func (b *brokerService) Commit(args TxArgs, reply *TxReply) error {
	return b.mgr.Commit(context.Background(), args.Tid)
}

func (b *brokerService) Abort(args TxArgs, reply *TxReply) error {
	return b.mgr.Abort(context.Background(), args.Tid)
}

func (b *brokerService) Empty(args EmptyArgs, reply *EmptyReply) error {
	n, err := b.mgr.Empty(context.Background(), strings.ToLower(args.Queue))
	if err != nil {
		return err
	}
	reply.Count = n
	return nil
}

func (b *brokerService) Stats(args StatsArgs, reply *StatsReply) error {
	queues := make([]string, len(args.Queues))
	for i, q := range args.Queues {
		queues[i] = strings.ToLower(q)
	}
	stats, err := b.mgr.Stats(context.Background(), queues)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

// Server exposes a *manager.Manager as the "Broker" net/rpc service over
// a msgpack-coded connection, gated by an optional ACL.
type Server struct {
	rpc *netrpc.Server
	acl *ACL
	log *slog.Logger

	lc       internal.LifecycleBase
	listener net.Listener
	done     internal.DoneChan
}

// NewServer creates a Server wrapping mgr. acl may be nil to allow every
// connection.
func NewServer(mgr *manager.Manager, acl *ACL, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	rs := netrpc.NewServer()
	if err := rs.RegisterName("Broker", &brokerService{mgr: mgr}); err != nil {
		return nil, err
	}
	return &Server{rpc: rs, acl: acl, log: log}, nil
}

// ListenAndServe listens on addr (DefaultAddr if empty) and serves until
// Stop is called.
func (s *Server) ListenAndServe(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l, gating each with the configured ACL
// before handing it to net/rpc. Serve returns once the listener is
// ready; accept loop runs in the background until Stop closes l.
func (s *Server) Serve(l net.Listener) error {
	if err := s.lc.TryStart(); err != nil {
		return err
	}
	s.listener = l
	s.done = make(internal.DoneChan)
	go s.acceptLoop(l)
	return nil
}

func (s *Server) acceptLoop(l net.Listener) {
	defer close(s.done)
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("rpc accept failed", "err", err)
			return
		}
		if !s.acl.Allowed(conn.RemoteAddr()) {
			s.log.Warn("rpc connection rejected by acl", "remote", conn.RemoteAddr())
			conn.Close()
			continue
		}
		go s.rpc.ServeCodec(newServerCodec(conn))
	}
}

// Stop closes the listener and waits up to timeout for the accept loop
// to exit. In-flight calls on already-accepted connections are not
// interrupted; closing those connections is the caller's responsibility
// once independently drained.
func (s *Server) Stop(timeout time.Duration) error {
	return s.lc.TryStop(timeout, s.doStop)
}

func (s *Server) doStop() internal.DoneChan {
	s.listener.Close()
	return s.done
}

// Addr returns the address the server is listening on. It must only be
// called after Serve/ListenAndServe has returned nil.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
