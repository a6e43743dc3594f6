package job

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
)

// SocketSource is a reference Source backed by a WebSocket endpoint that
// emits one JSON-encoded Update per frame. The transport stays an external
// collaborator; this adapter only turns frames into updates.
type SocketSource struct {
	url  string
	feed *Feed
}

// NewSocketSource creates a source for the given WebSocket URL.
func NewSocketSource(url string) *SocketSource {
	return &SocketSource{url: url, feed: NewFeed()}
}

// Subscribe attaches fn to updates for jobID.
func (s *SocketSource) Subscribe(jobID string, fn func(Update)) (func(), error) {
	return s.feed.Subscribe(jobID, fn)
}

// Run connects and reads frames until ctx is cancelled or the connection
// drops. Malformed frames are logged and skipped.
func (s *SocketSource) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	slog.Info("job: connected to update stream", "url", s.url)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.handle(raw)
	}
}

func (s *SocketSource) handle(raw []byte) {
	var u Update
	if err := json.Unmarshal(raw, &u); err != nil {
		slog.Warn("job: malformed update frame", "err", err)
		return
	}
	if u.ID == "" {
		slog.Warn("job: update frame without job id")
		return
	}
	s.feed.Emit(u)
}
