package client

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatp-client/internal/core"
	"github.com/vovakirdan/chatp-client/internal/proto"
)

// requester is the correlated request path, abstracted for tests.
type requester interface {
	Request(ctx context.Context, cmd proto.Command, pred func(*proto.Frame) bool) (*proto.Frame, error)
}

// FetchRooms walks the public room directory page by page and publishes
// the accumulated listing. A page failure ends the walk with whatever
// was fetched so far; the partial result is still published.
func (c *Client) FetchRooms(ctx context.Context) []core.RoomSummary {
	rooms := fetchAllRooms(ctx, c, c.cfg.MucType, c.log)
	c.sink.Publish(core.Event{Kind: core.EventRoomDirectory, Rooms: rooms})
	return rooms
}

// fetchAllRooms issues one correlated request per page starting at 1.
// The response's "page" field reports the total page count (default 1);
// a response without a room list ends the walk.
func fetchAllRooms(ctx context.Context, r requester, mucType string, log zerolog.Logger) []core.RoomSummary {
	var all []core.RoomSummary
	page, total := 1, 1

	for page <= total {
		frame, err := r.Request(ctx, proto.ListRooms(mucType, page), roomListReply(mucType))
		if err != nil {
			log.Warn().Err(err).Int("page", page).Msg("room listing aborted")
			break
		}
		rooms, ok := frame.Rooms()
		if !ok {
			break
		}
		all = append(all, core.SummariesFromWire(rooms)...)
		total = frame.PageCount()
		page++
	}
	return all
}

// roomListReply matches the correlated directory response: same handler
// family and the same directory category we asked for.
func roomListReply(mucType string) func(*proto.Frame) bool {
	return func(f *proto.Frame) bool {
		return proto.IsRoomList(f.Handler) && f.Type == mucType
	}
}
