package gateway

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/sink"
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection.
// The read loop feeds the engine, the write loop drains the connection's sink.
type Client struct {
	id        domain.ConnectionID
	conn      *websocket.Conn
	sink      *sink.ConnectionSink
	hub       *Hub
	submitter contract.Submitter
	log       *slog.Logger
	opts      Options
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Remove(c.id)
		c.sink.Close()
		if err := c.submitter.Submit(ctx, c.id, event.Disconnect{}); err != nil {
			c.log.Debug("Disconnect not submitted", "conn_id", c.id, "error", err)
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if isTransportError(err) {
				c.submit(ctx, event.TransportError{Err: err})
			}
			return
		}
		in, err := DecodeInbound(raw)
		if err != nil {
			c.submit(ctx, event.TransportError{Err: err})
			continue
		}
		if !c.submit(ctx, in) {
			return
		}
	}
}

// isTransportError is false for a clean close by the peer and for a socket we closed ourselves.
// Oversized frames, abnormal closures and timeouts are transport errors.
func isTransportError(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return false
	}
	return !errors.Is(err, net.ErrClosed)
}

func (c *Client) submit(ctx context.Context, in event.Inbound) bool {
	if err := c.submitter.Submit(ctx, c.id, in); err != nil {
		c.log.Debug("Inbound event not submitted", "conn_id", c.id, "kind", in.Kind(), "error", err)
		return false
	}
	return true
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.sink.Outbound:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			raw, err := EncodeOutbound(evt)
			if err != nil {
				c.log.Error("Outbound event not encoded", "conn_id", c.id, "event", evt.Name(), "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.log.Debug("Write failed", "conn_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
