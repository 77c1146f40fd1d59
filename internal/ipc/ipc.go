package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"path/filepath"
)

const (
	CmdTrigger    = "trigger"    // listen on the microphone
	CmdSay        = "say"        // Arg is a typed utterance
	CmdTranscribe = "transcribe" // Arg is an audio file path
	CmdNewChat    = "new-chat"
	CmdUpload     = "upload" // Arg is a media path, MIME optional
	CmdStop       = "stop"   // stop speaking
)

var ErrUnknownCommand = errors.New("unknown command")

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Arg  string `json:"arg,omitempty"`
	MIME string `json:"mime,omitempty"`
}

// Reply acknowledges a control message. It only says whether the daemon
// accepted the command; the outcome is presented by the daemon.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DefaultSocketPath lives in the runtime dir when there is one.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "secondbrain.sock")
	}
	return filepath.Join(os.TempDir(), "secondbrain.sock")
}

type Server struct {
	ln net.Listener
}

// StartServer listens on path and hands each message to handler on its own
// goroutine. A handler error is sent back to the client.
func StartServer(path string, handler func(ControlMessage) error) (*Server, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Warn("Failed to accept control connection", "err", err)
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return &Server{ln: ln}, nil
}

func (s *Server) Close() error {
	return s.ln.Close()
}

func handleConn(conn net.Conn, handler func(ControlMessage) error) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("Bad control message", "err", err)
		return
	}
	log.Debug("Control message", "cmd", msg.Cmd)

	reply := Reply{OK: true}
	if err := handler(msg); err != nil {
		reply = Reply{Error: err.Error()}
	}
	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		log.Warn("Failed to reply to control message", "err", err)
	}
}

// Send delivers msg to the daemon and waits for its acknowledgement.
func Send(path string, msg ControlMessage) error {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	if !reply.OK {
		return errors.New(reply.Error)
	}
	return nil
}
