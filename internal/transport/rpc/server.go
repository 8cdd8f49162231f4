// Package rpc exposes the status service to producers and consumers in
// other processes over JSON-RPC.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"

	"github.com/xiaot623/gogo/agentstatus/internal/domain"
	"github.com/xiaot623/gogo/agentstatus/internal/logging"
	"github.com/xiaot623/gogo/agentstatus/internal/repository"
	"github.com/xiaot623/gogo/agentstatus/internal/service"
)

// ServiceName is the name methods are registered under.
const ServiceName = "Status"

// Server accepts JSON-RPC connections.
type Server struct {
	mu        sync.Mutex
	closed    bool
	listener  net.Listener
	rpcServer *rpc.Server
	logger    logging.Logger
	done      chan struct{}
}

// NewServer creates a new RPC server bound to the status service. A nil
// logger discards accept errors.
func NewServer(svc *service.Service, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	rpcServer := rpc.NewServer()
	handler := &Handler{service: svc}
	if err := rpcServer.RegisterName(ServiceName, handler); err != nil {
		return nil, fmt.Errorf("register rpc handler: %w", err)
	}

	return &Server{
		rpcServer: rpcServer,
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

// Start begins accepting RPC connections on the given address.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until it is closed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ln.Close()
	}
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				close(s.done)
				return nil
			}
			s.logger.Warn("rpc accept error", "error", err)
			continue
		}

		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// Shutdown stops accepting new RPC connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return nil
	}

	if err := ln.Close(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler implements the status RPC methods.
type Handler struct {
	service *service.Service
}

// PublishArgs carries one lifecycle event.
type PublishArgs struct {
	SessionID string           `json:"session_id,omitempty"`
	Kind      domain.EventKind `json:"kind"`
	Payload   json.RawMessage  `json:"payload"`
}

// RunArgs addresses one run.
type RunArgs struct {
	SessionID string `json:"session_id,omitempty"`
	RunID     string `json:"run_id"`
}

// StatusReply carries a trace.
type StatusReply struct {
	Update *domain.StatusUpdate `json:"update"`
}

// RunIDReply carries a freshly generated run id.
type RunIDReply struct {
	RunID string `json:"run_id"`
}

// AckResponse is a generic OK response.
type AckResponse struct {
	OK bool `json:"ok"`
}

// Publish feeds an event through the status subscriber.
func (h *Handler) Publish(req *PublishArgs, resp *AckResponse) error {
	if req == nil {
		return errors.New("publish request is required")
	}
	if req.Kind == "" {
		return errors.New("kind is required")
	}

	ev, err := domain.DecodeEvent(req.Kind, req.Payload)
	if err != nil {
		return err
	}
	if err := h.service.Dispatch(sessionContext(req.SessionID), ev); err != nil {
		return err
	}
	if resp != nil {
		resp.OK = true
	}
	return nil
}

// GetLatest returns the trace of a run.
func (h *Handler) GetLatest(req *RunArgs, resp *StatusReply) error {
	if req == nil || req.RunID == "" {
		return errors.New("run_id is required")
	}

	update, err := h.service.GetLatest(sessionContext(req.SessionID), req.RunID)
	if err != nil {
		return err
	}
	if resp != nil {
		resp.Update = update
	}
	return nil
}

// Delete discards the trace of a run.
func (h *Handler) Delete(req *RunArgs, resp *AckResponse) error {
	if req == nil || req.RunID == "" {
		return errors.New("run_id is required")
	}

	if err := h.service.DeleteStatusUpdate(sessionContext(req.SessionID), req.RunID); err != nil {
		return err
	}
	if resp != nil {
		resp.OK = true
	}
	return nil
}

// NewRunID hands out a run id for a new top-level invocation.
func (h *Handler) NewRunID(_ *struct{}, resp *RunIDReply) error {
	if resp != nil {
		resp.RunID = service.NewRunID()
	}
	return nil
}

func sessionContext(sessionID string) context.Context {
	ctx := context.Background()
	if sessionID != "" {
		ctx = repository.WithSession(ctx, sessionID)
	}
	return ctx
}
