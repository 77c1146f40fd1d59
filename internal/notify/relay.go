package notify

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"secondbrain/internal/backend"
)

// RelayMessage is one frame sent to the hub.
type RelayMessage struct {
	From    string           `json:"from"`
	Kind    string           `json:"kind"`
	Content string           `json:"content,omitempty"`
	Outcome *backend.Outcome `json:"outcome,omitempty"`
	Time    time.Time        `json:"time"`
}

// Relay mirrors status and outcomes to a websocket hub so other screens can
// show them. Write failures are logged and dropped.
type Relay struct {
	mu   sync.Mutex
	conn *websocket.Conn
	from string
}

func DialRelay(wsURL, from string) (*Relay, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	log.Info("Connected to relay", "url", wsURL)
	return &Relay{conn: conn, from: from}, nil
}

func (r *Relay) Status(text string) {
	r.write(RelayMessage{From: r.from, Kind: "status", Content: text})
}

func (r *Relay) Present(o backend.Outcome) {
	r.write(RelayMessage{From: r.from, Kind: "outcome", Content: o.DisplayText, Outcome: &o})
}

func (r *Relay) write(m RelayMessage) {
	m.Time = time.Now().UTC()
	data, err := json.Marshal(m)
	if err != nil {
		log.Error("Failed to encode relay message", "err", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Warn("Failed to write relay message", "kind", m.Kind, "err", err)
	}
}

func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return r.conn.Close()
}
