// Package render provides ready-made sinks for the core event stream.
// The core never renders anything itself; callers plug in a sink and
// decide presentation.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/vovakirdan/chatp-client/internal/core"
)

// Nop discards every event.
type Nop struct{}

// Publish implements core.Sink.
func (Nop) Publish(core.Event) {}

// Writer formats events as terminal lines, one per event.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter builds a sink printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Publish implements core.Sink.
func (s *Writer) Publish(ev core.Event) {
	line := format(ev)
	if line == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, line)
}

func format(ev core.Event) string {
	switch ev.Kind {
	case core.EventSessionState:
		return ""
	case core.EventStatus:
		return "* " + ev.Status
	case core.EventLoginFailed:
		return "* Login failed: " + ev.Reason
	case core.EventRoster:
		return formatRoster(ev.Roster)
	case core.EventRoomDirectory:
		return formatDirectory(ev.Rooms)
	case core.EventRoomJoined:
		return fmt.Sprintf("* joined %s (%d users)%s", ev.Room, len(ev.Users), subjectSuffix(ev))
	case core.EventUserJoined:
		return fmt.Sprintf("[%s] %s joined", ev.Room, ev.User.Username)
	case core.EventUserLeft:
		return fmt.Sprintf("[%s] %s left", ev.Room, ev.User.Username)
	case core.EventChatMessage:
		return formatMessage(ev.Message)
	case core.EventSubjectChanged:
		return fmt.Sprintf("[%s] subject set by %s: %s", ev.Room, ev.SubjectAuthor, ev.Subject)
	case core.EventRoleChanged:
		return fmt.Sprintf("[%s] %s is now %s", ev.Room, ev.User.Username, ev.User.Role)
	case core.EventCaptchaRequired:
		return fmt.Sprintf("[%s] solve the captcha to continue (/captcha %s <answer>)", ev.Room, ev.Room)
	case core.EventCaptchaFailed:
		return fmt.Sprintf("[%s] captcha answer rejected, try again", ev.Room)
	case core.EventCaptchaPassed:
		return fmt.Sprintf("[%s] captcha accepted", ev.Room)
	case core.EventPasswordRequired:
		return fmt.Sprintf("[%s] this room needs a password", ev.Room)
	case core.EventRoomCreateFailed:
		return "* could not create room: " + ev.Reason
	default:
		return ""
	}
}

func subjectSuffix(ev core.Event) string {
	if ev.Subject == "" {
		return ""
	}
	return ", subject: " + ev.Subject
}

func formatMessage(msg *core.ChatMessage) string {
	if msg == nil {
		return ""
	}
	switch msg.Kind {
	case "image", "audio", "gift":
		return fmt.Sprintf("[%s] %s sent %s: %s", msg.Room, msg.From, msg.Kind, msg.URL)
	default:
		return fmt.Sprintf("[%s] %s: %s", msg.Room, msg.From, msg.Body)
	}
}

func formatRoster(entries []core.RosterEntry) string {
	if len(entries) == 0 {
		return "* roster is empty"
	}
	var b strings.Builder
	b.WriteString("* friends:")
	for _, e := range entries {
		mode := "offline"
		if e.Online {
			mode = "online"
		}
		fmt.Fprintf(&b, "\n    %-20s %s", e.Username, mode)
	}
	return b.String()
}

func formatDirectory(rooms []core.RoomSummary) string {
	if len(rooms) == 0 {
		return "* no public rooms"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "* %d public rooms:", len(rooms))
	for _, r := range rooms {
		tags := ""
		if r.PasswordProtected {
			tags += " [password]"
		}
		if r.MembersOnly {
			tags += " [members only]"
		}
		fmt.Fprintf(&b, "\n    %-24s %4d users%s", r.Name, r.UserCount, tags)
	}
	return b.String()
}
