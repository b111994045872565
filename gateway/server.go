package gateway

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/sink"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Options struct {
	ConnectionBufferSize int
	WriteTimeout         time.Duration
	PongTimeout          time.Duration
	MaxFrameBytes        int64
	// CheckOrigin defaults to accepting every origin.
	CheckOrigin func(r *http.Request) bool
}

func (o Options) pingPeriod() time.Duration {
	return o.PongTimeout * 9 / 10
}

func (o Options) withDefaults() Options {
	if o.ConnectionBufferSize <= 0 {
		o.ConnectionBufferSize = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	return o
}

// Server upgrades HTTP requests to websocket connections and binds them to the hub.
type Server struct {
	log       *slog.Logger
	hub       *Hub
	submitter contract.Submitter
	upgrader  websocket.Upgrader
	opts      Options
}

func NewServer(log *slog.Logger, hub *Hub, submitter contract.Submitter, opts Options) *Server {
	opts = opts.withDefaults()
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Server{
		log:       log,
		hub:       hub,
		submitter: submitter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		opts: opts,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		s.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &Client{
		id:        domain.ConnectionID(uuid.NewString()),
		conn:      conn,
		sink:      sink.NewConnectionSink(s.opts.ConnectionBufferSize),
		hub:       s.hub,
		submitter: s.submitter,
		log:       s.log,
		opts:      s.opts,
	}
	// The request context ends with this handler, the connection does not.
	ctx := context.WithoutCancel(r.Context())

	// The handshake is queued before the connection becomes visible to broadcasts.
	_ = client.sink.Consume(ctx, event.Connected{ConnID: client.id})
	s.hub.Add(client.id, client.sink)
	s.log.Info("New user connected", "conn_id", client.id, "remote", r.RemoteAddr)

	go client.writePump()
	go client.readPump(ctx)
}
