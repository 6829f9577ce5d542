// Package botcmd is an optional middleware that watches the core event
// stream for prefixed text commands and answers them in-room. It sits
// outside the protocol core: wrap a sink with it or leave it out, the
// client behaves the same either way.
package botcmd

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatp-client/internal/core"
)

// DefaultPrefix marks a chat line as a command.
const DefaultPrefix = "."

// Sender posts replies back into a room.
type Sender interface {
	SendText(room, body string) error
}

// Middleware forwards every event to next and additionally reacts to
// text messages starting with the command prefix.
type Middleware struct {
	next   core.Sink
	sender Sender
	prefix string
	log    zerolog.Logger
}

// Wrap decorates next with command handling.
func Wrap(next core.Sink, sender Sender, prefix string, logger *zerolog.Logger) *Middleware {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Middleware{
		next:   next,
		sender: sender,
		prefix: prefix,
		log:    logger.With().Str("component", "botcmd").Logger(),
	}
}

// Publish implements core.Sink.
func (m *Middleware) Publish(ev core.Event) {
	m.next.Publish(ev)

	if ev.Kind != core.EventChatMessage || ev.Message == nil || ev.Message.Kind != "text" {
		return
	}
	body := strings.TrimSpace(ev.Message.Body)
	if !strings.HasPrefix(body, m.prefix) {
		return
	}
	reply := m.answer(strings.TrimPrefix(body, m.prefix))
	if reply == "" {
		return
	}
	if err := m.sender.SendText(ev.Message.Room, reply); err != nil {
		m.log.Warn().Err(err).Str("room", ev.Message.Room).Msg("command reply failed")
	}
}

func (m *Middleware) answer(cmd string) string {
	name, _, _ := strings.Cut(cmd, " ")
	switch name {
	case "help":
		return "commands: " + m.prefix + "help, " + m.prefix + "ping, " + m.prefix + "time"
	case "ping":
		return "pong"
	case "time":
		return time.Now().UTC().Format(time.RFC1123)
	default:
		return ""
	}
}
