package backend

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

type chatRequest struct {
	Session string `json:"session"`
	Message string `json:"message"`
}

type chatReply struct {
	Reply   string
	Saved   string
	Session string
}

// ExecuteChat sends one message in the current session. A differing session
// id in a successful reply replaces the stored one.
func (c *Client) ExecuteChat(ctx context.Context, message string) Outcome {
	sess := c.sessions.Current()

	status, body, err := c.postJSON(ctx, "chat", chatRequest{Session: sess.ID, Message: message})
	if err != nil {
		log.Error("Chat request failed", "session", sess.ID, "err", err)
		return Failure("Network error: "+err.Error(), "Network error.")
	}

	text := string(body)
	if !isSuccess(status) {
		log.Warn("Chat rejected", "session", sess.ID, "status", status)
		return Failure(fmt.Sprintf("Chat failed (%d): %s", status, text), "Request failed.")
	}

	reply := parseChatReply(text)
	if reply.Session != "" && reply.Session != sess.ID {
		c.sessions.Adopt(reply.Session)
	}

	display := reply.Reply
	if strings.TrimSpace(reply.Saved) != "" {
		display += " (saved: " + reply.Saved + ")"
	}
	return Success(display, reply.Reply)
}

// parseChatReply reads the optional reply/saved/session fields. A body that
// is not a JSON object is the reply itself.
func parseChatReply(body string) chatReply {
	out := chatReply{Reply: body}
	if !gjson.Valid(body) {
		return out
	}

	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return out
	}

	if v := doc.Get("reply"); v.Exists() {
		out.Reply = v.String()
	}
	out.Saved = doc.Get("saved").String()
	out.Session = doc.Get("session").String()
	return out
}
