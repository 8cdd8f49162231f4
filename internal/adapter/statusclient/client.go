// Package statusclient talks to a running status service: JSON-RPC for
// publishing and reading, WebSocket for watching.
package statusclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/rpc/jsonrpc"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
	"github.com/xiaot623/gogo/agentstatus/internal/transport/rpc"
)

// Client talks to a status server: JSON-RPC for publishing and queries,
// WebSocket for watching a run.
type Client struct {
	addr        string
	httpURL     string
	dialTimeout time.Duration
	callTimeout time.Duration
}

// NewClient creates a client for the RPC endpoint rpcAddr and the HTTP base
// URL httpURL. Either may be a bare host:port.
func NewClient(rpcAddr, httpURL string) *Client {
	return &Client{
		addr:        resolveRPCAddr(rpcAddr),
		httpURL:     strings.TrimRight(httpURL, "/"),
		dialTimeout: 5 * time.Second,
		callTimeout: 5 * time.Second,
	}
}

// Publish sends one lifecycle event to the service.
func (c *Client) Publish(ctx context.Context, sessionID string, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}
	return c.PublishRaw(ctx, sessionID, ev.Kind(), payload)
}

// PublishRaw sends an already encoded event payload.
func (c *Client) PublishRaw(ctx context.Context, sessionID string, kind domain.EventKind, payload json.RawMessage) error {
	req := &rpc.PublishArgs{SessionID: sessionID, Kind: kind, Payload: payload}
	var resp rpc.AckResponse
	if err := c.call(ctx, rpc.ServiceName+".Publish", req, &resp); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", kind, err)
	}
	if !resp.OK {
		return fmt.Errorf("status rpc returned ok=false")
	}
	return nil
}

// GetLatest fetches the trace of runID.
func (c *Client) GetLatest(ctx context.Context, sessionID, runID string) (*domain.StatusUpdate, error) {
	var resp rpc.StatusReply
	if err := c.call(ctx, rpc.ServiceName+".GetLatest", &rpc.RunArgs{SessionID: sessionID, RunID: runID}, &resp); err != nil {
		return nil, fmt.Errorf("failed to get status %s: %w", runID, err)
	}
	if resp.Update == nil {
		return domain.NewStatusUpdate(), nil
	}
	return resp.Update, nil
}

// Delete discards the trace of runID.
func (c *Client) Delete(ctx context.Context, sessionID, runID string) error {
	var resp rpc.AckResponse
	if err := c.call(ctx, rpc.ServiceName+".Delete", &rpc.RunArgs{SessionID: sessionID, RunID: runID}, &resp); err != nil {
		return fmt.Errorf("failed to delete status %s: %w", runID, err)
	}
	return nil
}

// NewRunID asks the service for a run id.
func (c *Client) NewRunID(ctx context.Context) (string, error) {
	var resp rpc.RunIDReply
	if err := c.call(ctx, rpc.ServiceName+".NewRunID", &struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("failed to get run id: %w", err)
	}
	return resp.RunID, nil
}

// Watch streams the records of runID starting after the first from records.
// It returns nil when the server closes the stream normally.
func (c *Client) Watch(ctx context.Context, sessionID, runID string, from int, fn func(domain.Record) error) error {
	addr, err := c.watchURL(runID, from)
	if err != nil {
		return err
	}
	header := http.Header{}
	if sessionID != "" {
		header.Set("X-Session-ID", sessionID)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		rec, err := domain.UnmarshalRecord(data)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func (c *Client) watchURL(runID string, from int) (string, error) {
	base := c.httpURL
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid status url %q: %w", c.httpURL, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/status/" + runID + "/watch"
	if from > 0 {
		u.RawQuery = "from=" + strconv.Itoa(from)
	}
	return u.String(), nil
}

func (c *Client) call(ctx context.Context, method string, args, reply interface{}) error {
	if c.addr == "" {
		return fmt.Errorf("status rpc address is not configured")
	}
	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if c.callTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.callTimeout))
	}

	client := jsonrpc.NewClient(conn)
	call := client.Go(method, args, reply, nil)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-call.Done:
		return call.Error
	}
}

func resolveRPCAddr(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err == nil && parsed.Host != "" {
			return parsed.Host
		}
	}
	return raw
}
