package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/drishti/internal/app"
	"github.com/gorilla/websocket"
)

func TestStatsSocket_BroadcastsSnapshots(t *testing.T) {
	stats := &fakeStats{snapshot: app.Snapshot{Mode: "roi", FPS: 18.0}}
	srv := httptest.NewServer(New(Config{Stats: stats}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stats/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial error: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message error: %v", err)
	}

	var payload struct {
		Stats     app.Snapshot `json:"stats"`
		Timestamp int64        `json:"timestamp"`
	}
	if err := json.Unmarshal(msg, &payload); err != nil {
		t.Fatalf("failed to decode broadcast: %v", err)
	}
	if payload.Stats.Mode != "roi" {
		t.Errorf("broadcast mode = %q, want roi", payload.Stats.Mode)
	}
	if payload.Timestamp == 0 {
		t.Error("broadcast timestamp missing")
	}
}
