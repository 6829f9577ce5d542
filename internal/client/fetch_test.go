package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatp-client/internal/proto"
)

// scriptedRequester answers directory requests from a per-page script.
type scriptedRequester struct {
	t        *testing.T
	pages    map[string]string // page number -> response payload
	failures map[string]error  // page number -> injected failure
	requests []string
}

func (s *scriptedRequester) Request(_ context.Context, cmd proto.Command, pred func(*proto.Frame) bool) (*proto.Frame, error) {
	s.t.Helper()
	page, _ := cmd.Fields["page"].(string)
	s.requests = append(s.requests, page)

	if err, ok := s.failures[page]; ok {
		return nil, err
	}
	payload, ok := s.pages[page]
	if !ok {
		s.t.Fatalf("unscripted page request %q", page)
	}
	frame, err := proto.NewCodec(proto.Classic, nil).Decode([]byte(payload))
	if err != nil {
		s.t.Fatalf("decode scripted page %q: %v", page, err)
	}
	if !pred(frame) {
		s.t.Fatalf("scripted response for page %q does not satisfy the predicate", page)
	}
	return frame, nil
}

func directoryPage(rooms []string, total string) string {
	type room struct {
		Name       string `json:"name"`
		UsersCount string `json:"users_count"`
	}
	out := struct {
		Handler string `json:"handler"`
		Type    string `json:"type"`
		Page    string `json:"page"`
		Rooms   []room `json:"rooms"`
	}{Handler: "room_info", Type: "public_rooms", Page: total}
	for _, name := range rooms {
		out.Rooms = append(out.Rooms, room{Name: name, UsersCount: "1"})
	}
	payload, _ := json.Marshal(out)
	return string(payload)
}

func TestFetchAllPagesInOrder(t *testing.T) {
	r := &scriptedRequester{t: t, pages: map[string]string{
		"1": directoryPage([]string{"alpha", "bravo"}, "3"),
		"2": directoryPage([]string{"charlie"}, "3"),
		"3": directoryPage([]string{"delta", "echo"}, "3"),
	}}

	rooms := fetchAllRooms(context.Background(), r, "public_rooms", zerolog.Nop())

	want := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	if len(rooms) != len(want) {
		t.Fatalf("rooms = %d, want %d", len(rooms), len(want))
	}
	for i, name := range want {
		if rooms[i].Name != name {
			t.Fatalf("rooms[%d] = %q, want %q", i, rooms[i].Name, name)
		}
	}
	if len(r.requests) != 3 {
		t.Fatalf("requests = %v, want exactly 3", r.requests)
	}
}

func TestFetchReturnsPartialResultOnPageFailure(t *testing.T) {
	r := &scriptedRequester{
		t: t,
		pages: map[string]string{
			"1": directoryPage([]string{"alpha", "bravo"}, "3"),
		},
		failures: map[string]error{
			"2": errors.New("request timed out"),
		},
	}

	rooms := fetchAllRooms(context.Background(), r, "public_rooms", zerolog.Nop())

	if len(rooms) != 2 || rooms[0].Name != "alpha" || rooms[1].Name != "bravo" {
		t.Fatalf("partial result = %+v, want page 1 only", rooms)
	}
	if len(r.requests) != 2 {
		t.Fatalf("requests = %v, want fetch to stop at the failed page", r.requests)
	}
}

func TestFetchStopsOnResponseWithoutRoomList(t *testing.T) {
	r := &scriptedRequester{t: t, pages: map[string]string{
		"1": directoryPage([]string{"alpha"}, "5"),
		"2": `{"handler":"room_info","type":"public_rooms","page":"5"}`,
	}}

	rooms := fetchAllRooms(context.Background(), r, "public_rooms", zerolog.Nop())

	if len(rooms) != 1 || rooms[0].Name != "alpha" {
		t.Fatalf("rooms = %+v, want alpha only", rooms)
	}
	if len(r.requests) != 2 {
		t.Fatalf("requests = %v", r.requests)
	}
}

func TestFetchSinglePageDefault(t *testing.T) {
	// No "page" field in the response means a single page.
	r := &scriptedRequester{t: t, pages: map[string]string{
		"1": `{"handler":"room_info","type":"public_rooms","rooms":[{"name":"solo","users_count":"9"}]}`,
	}}

	rooms := fetchAllRooms(context.Background(), r, "public_rooms", zerolog.Nop())

	if len(rooms) != 1 || rooms[0].Name != "solo" || rooms[0].UserCount != 9 {
		t.Fatalf("rooms = %+v", rooms)
	}
	if len(r.requests) != 1 {
		t.Fatalf("requests = %v, want exactly 1", r.requests)
	}
}
