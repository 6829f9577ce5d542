package proto

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
)

// idTag namespaces correlation ids so they are recognizable in server
// logs and in the debug mirror. The suffix after '#' is random base-36.
const idTag = "chatp-go-2024"

// NewID returns a fresh correlation id. Uniqueness only needs to hold for
// concurrent in-flight requests, so 64 random bits are plenty.
func NewID() string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8])
	return idTag + "#" + strconv.FormatUint(n, 36)
}

// Codec serializes logical commands to wire frames and parses inbound
// payloads. Every raw inbound payload is copied verbatim to the mirror
// before decoding, whatever the dispatch outcome.
type Codec struct {
	variant Variant
	mirror  io.Writer
}

// NewCodec builds a codec for the given variant. mirror may be nil.
func NewCodec(variant Variant, mirror io.Writer) *Codec {
	if mirror == nil {
		mirror = io.Discard
	}
	return &Codec{variant: variant, mirror: mirror}
}

// Variant returns the outbound variant this codec encodes for.
func (c *Codec) Variant() Variant { return c.variant }

// Encode resolves the command's wire handler, stamps a fresh correlation
// id and marshals the frame. The returned id is what a matching reply
// will echo.
func (c *Codec) Encode(cmd Command) (id string, payload []byte, err error) {
	id = NewID()
	frame := make(map[string]any, len(cmd.Fields)+3)

	if cmd.Name == CmdChat {
		c.encodeChat(cmd, frame)
	} else {
		for k, v := range cmd.Fields {
			frame[k] = v
		}
		if cmd.Type != "" {
			frame["type"] = cmd.Type
		}
	}

	frame["handler"] = c.variant.Handler(cmd.Name)
	frame["id"] = id

	payload, err = json.Marshal(frame)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", cmd.Name, err)
	}
	return id, payload, nil
}

// encodeChat shapes a chat command for the active variant: chat_message
// is flat {room, message}, room_message carries a typed body.
func (c *Codec) encodeChat(cmd Command, frame map[string]any) {
	if c.variant.Chat == HandlerChatMessage {
		frame["room"] = cmd.Fields["room"]
		frame["message"] = cmd.Fields["body"]
		return
	}
	for k, v := range cmd.Fields {
		frame[k] = v
	}
	kind := cmd.Type
	if kind == "" {
		kind = TypeText
	}
	frame["type"] = kind
}

// Decode parses an inbound payload. A parse failure is recoverable: the
// caller drops the frame and keeps the connection. The payload reaches
// the mirror either way.
func (c *Codec) Decode(data []byte) (*Frame, error) {
	c.mirror.Write(data)
	c.mirror.Write([]byte{'\n'})

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	f := &Frame{Raw: data, fields: fields}
	f.Handler = f.String("handler")
	f.Type = f.String("type")
	f.ID = f.String("id")
	if f.Handler == "" {
		return nil, fmt.Errorf("decode frame: missing handler")
	}
	return f, nil
}
