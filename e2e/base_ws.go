package e2e

import (
	"chat-relay/domain/event"
	"chat-relay/gateway"
	"chat-relay/internal"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseWsSuite struct {
	suite.Suite
	Config Config
	addr   string
	server *httptest.Server
	stop   func()
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// SetupTest starts a fresh relay for each test unless RELAY_ADDR points to one.
func (s *BaseWsSuite) SetupTest() {
	if s.Config.RelayAddr != "" {
		s.addr = s.Config.RelayAddr
		return
	}
	relayConfig, err := internal.ParseConfig()
	s.Require().NoError(err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	engine := runtime.NewEngine(log, runtime.NewRegistry(), runtime.NewTypingSet())
	telemetryChan := make(chan event.Event, 64)
	hub := gateway.NewHub(log)
	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, telemetryChan, 10*time.Millisecond),
		engine, hub, telemetryChan, 64, time.Second, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = orchestrator.Start(ctx)
	}()
	s.server = httptest.NewServer(gateway.NewServer(log, hub, orchestrator, gateway.Options{
		MaxFrameBytes:        relayConfig.MaxFrameBytes,
		ConnectionBufferSize: relayConfig.ConnectionBufferSize,
	}))
	s.addr = strings.TrimPrefix(s.server.URL, "http://")
	s.stop = func() {
		hub.CloseAll()
		s.server.Close()
		orchestrator.Stop()
		cancel()
		<-done
	}
}

func (s *BaseWsSuite) TearDownTest() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// Peer is one websocket client taking part in a scenario.
type Peer struct {
	s        *BaseWsSuite
	name     string
	conn     *websocket.Conn
	SocketID string
}

// Connect dials the relay and consumes the connect handshake.
func (s *BaseWsSuite) Connect(name string) *Peer {
	header := fmt.Sprintf("  ====== %s connects ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.addr+"/ws", nil)
	s.Require().NoError(err, "Failed to connect to relay at "+s.addr)
	p := &Peer{s: s, name: name, conn: conn}

	var handshake gateway.Handshake
	p.Expect("connect", &handshake)
	s.Require().NotEmpty(handshake.SocketID)
	p.SocketID = handshake.SocketID
	return p
}

func (p *Peer) Send(name string, payload any) {
	p.s.T().Logf("%s -> %s %v", p.name, name, payload)
	err := p.conn.WriteJSON(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: name, Data: payload})
	p.s.Require().NoError(err)
}

// SendRaw writes a frame as is, malformed or not.
func (p *Peer) SendRaw(raw string) {
	p.s.Require().NoError(p.conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

// Expect reads the next frame, requires its event name and decodes its data into out.
func (p *Peer) Expect(name string, out any) {
	_ = p.conn.SetReadDeadline(time.Now().Add(p.s.Config.Timeout))
	_, raw, err := p.conn.ReadMessage()
	p.s.Require().NoError(err, "%s waited for %s", p.name, name)
	if p.s.Config.DebugJSON {
		p.s.T().Logf("%s <- %s", p.name, raw)
	}
	var frame gateway.Frame
	p.s.Require().NoError(json.Unmarshal(raw, &frame))
	p.s.Require().Equal(name, frame.Event, "%s received %s", p.name, raw)
	if out != nil {
		p.s.Require().NoError(json.Unmarshal(frame.Data, out))
	}
}

// ExpectSilence requires that no frame arrives within d.
// A timed out websocket cannot be read again, so it is the peer's last read.
func (p *Peer) ExpectSilence(d time.Duration) {
	_ = p.conn.SetReadDeadline(time.Now().Add(d))
	_, raw, err := p.conn.ReadMessage()
	p.s.Require().Error(err, "%s expected nothing, received %s", p.name, raw)
	var netErr interface{ Timeout() bool }
	p.s.Require().ErrorAs(err, &netErr)
	p.s.Require().True(netErr.Timeout())
}

// Leave closes the socket cleanly, the way a browser tab does.
func (p *Peer) Leave() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = p.conn.Close()
}
