package client

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
)

// wireConn abstracts the websocket so the connection lifecycle can be
// driven by an in-memory fake in tests.
type wireConn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// dialFunc opens a transport to the endpoint.
type dialFunc func(ctx context.Context, url string) (wireConn, error)

type websocketConn struct {
	ws *websocket.Conn
}

func dialWebsocket(ctx context.Context, url string) (wireConn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	// Room listings arrive as one large frame.
	conn.SetReadLimit(1 << 20)
	return &websocketConn{ws: conn}, nil
}

func (c *websocketConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	return data, err
}

func (c *websocketConn) Write(ctx context.Context, data []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (c *websocketConn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}
