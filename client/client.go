package main

import (
	"bufio"
	"chat-relay/gateway"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/Netflix/go-env"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const maxUsernameLength = 20

var errUsernameTooLong = fmt.Errorf("username must be %d characters or less", maxUsernameLength)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:3000"`
	Username      string `env:"CHAT_USERNAME"`
	LogLevel      string `env:"LOG_LEVEL,default=WARN"`
	Colours       bool   `env:"CHAT_COLOURS,default=true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the websocket lifecycle: join, then print frames while stdin lines are sent as messages.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	stdin := bufio.NewScanner(os.Stdin)
	username, err := promptUsername(stdin, os.Stdout, config.Username)
	if err != nil {
		return exitConfig, err
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Establish the websocket.
	u := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", u.String(), err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	if err := send(conn, "join", username); err != nil {
		return exitRuntime, err
	}
	fmt.Printf(">>> Connected to %s as %s (Ctrl+C or /quit to leave)\n", config.ServerAddress, username)

	// 4. Frame reception loop.
	renderer := NewRenderer(os.Stdout, username, config.Colours)
	readErr := make(chan error, 1)
	go func() {
		for {
			var frame gateway.Frame
			if err := conn.ReadJSON(&frame); err != nil {
				readErr <- err
				return
			}
			if err := renderer.Render(frame); err != nil {
				log.Debug("Frame not rendered", "event", frame.Event, "error", err)
			}
		}
	}()

	// 5. Input loop.
	lines := make(chan string)
	go func() {
		defer close(lines)
		for stdin.Scan() {
			lines <- stdin.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				fmt.Println("Disconnected from server.")
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection error: %w", err)
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				return exitOK, nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := send(conn, "chat-message", gateway.ChatPayload{Message: &text}); err != nil {
				return exitRuntime, err
			}
		}
	}
}

// promptUsername returns preset when set, otherwise asks until a valid name is typed.
func promptUsername(in *bufio.Scanner, out io.Writer, preset string) (string, error) {
	if name := strings.TrimSpace(preset); name != "" {
		return name, validateUsername(name)
	}
	for {
		_, _ = fmt.Fprint(out, "Enter your name: ")
		if !in.Scan() {
			return "", errors.New("no username entered")
		}
		name := strings.TrimSpace(in.Text())
		if name == "" {
			_, _ = fmt.Fprintln(out, "Please enter a username")
			continue
		}
		if err := validateUsername(name); err != nil {
			_, _ = fmt.Fprintln(out, err)
			continue
		}
		return name, nil
	}
}

func validateUsername(name string) error {
	if utf8.RuneCountInString(name) > maxUsernameLength {
		return errUsernameTooLong
	}
	return nil
}

func send(conn *websocket.Conn, name string, payload any) error {
	return conn.WriteJSON(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: name, Data: payload})
}
