package main

import (
	"chat-relay/gateway"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"
	"github.com/samber/lo"
)

// Renderer prints server frames for one terminal session.
type Renderer struct {
	out      io.Writer
	colours  bool
	ownID    string
	username string
	typing   string
	online   int
}

func NewRenderer(out io.Writer, username string, colours bool) *Renderer {
	return &Renderer{out: out, username: username, colours: colours}
}

// Render prints one frame. Unknown events are ignored.
func (r *Renderer) Render(frame gateway.Frame) error {
	switch frame.Event {
	case "connect":
		var handshake gateway.Handshake
		if err := json.Unmarshal(frame.Data, &handshake); err != nil {
			return err
		}
		r.ownID = handshake.SocketID
	case "user-joined", "user-left":
		var presence gateway.UserPresence
		if err := json.Unmarshal(frame.Data, &presence); err != nil {
			return err
		}
		r.println(r.paint(color.New(color.FgGray, color.OpItalic), "* "+presence.Message))
	case "users-count":
		if err := json.Unmarshal(frame.Data, &r.online); err != nil {
			return err
		}
		r.println(r.paint(color.New(color.FgGray), fmt.Sprintf("* %d online", r.online)))
	case "chat-message":
		var msg gateway.ChatMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			return err
		}
		r.println(r.formatMessage(msg))
	case "typing-status":
		var status gateway.TypingStatus
		if err := json.Unmarshal(frame.Data, &status); err != nil {
			return err
		}
		line := typingLine(status.TypingUsers, r.username)
		if line != r.typing && line != "" {
			r.println(r.paint(color.New(color.FgYellow), line+"..."))
		}
		r.typing = line
	}
	return nil
}

func (r *Renderer) formatMessage(msg gateway.ChatMessage) string {
	at := clockTime(msg.Timestamp)
	if msg.SocketID == r.ownID {
		return fmt.Sprintf("%s %s: %s", at, r.paint(color.New(color.FgGreen, color.OpBold), "you"), msg.Message)
	}
	return fmt.Sprintf("%s %s: %s", at, r.paint(color.New(color.FgCyan, color.OpBold), msg.Username), msg.Message)
}

func (r *Renderer) paint(style color.Style, s string) string {
	if !r.colours {
		return s
	}
	return style.Render(s)
}

func (r *Renderer) println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// typingLine describes who else is typing, self excluded.
func typingLine(typingUsers []string, self string) string {
	others := lo.Without(typingUsers, self)
	switch len(others) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s is typing", others[0])
	case 2:
		return fmt.Sprintf("%s and %s are typing", others[0], others[1])
	default:
		return fmt.Sprintf("%s and %d others are typing", others[0], len(others)-1)
	}
}

// clockTime shows a server timestamp as local HH:MM.
func clockTime(timestamp string) string {
	at, err := time.Parse(gateway.TimestampLayout, timestamp)
	if err != nil {
		return "--:--"
	}
	return at.Local().Format("15:04")
}
