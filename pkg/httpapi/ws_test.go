package httpapi

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/momentlabs/radar/pkg/radar"
)

func wsURL(srv string) string {
	return "ws" + strings.TrimPrefix(srv, "http") + "/v1/radar/ws"
}

func TestWebsocketSearch(t *testing.T) {
	engine := &fakeEngine{messages: defaultStream()}
	srv := newTestServer(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	err = wsjson.Write(ctx, conn, wsRequest{
		Mode: "search",
		Search: &SearchRequest{
			City: "paris", DateFrom: "2026-03-20", DateTo: "2026-03-21", Keywords: "jazz",
		},
	})
	if err != nil {
		t.Fatalf("write request: %v", err)
	}

	var msgs []radar.Message
	for {
		var msg radar.Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			break
		}
		msgs = append(msgs, msg)
		if msg.Type == radar.MessageDone {
			break
		}
	}
	if len(msgs) != 3 || msgs[2].Type != radar.MessageDone {
		t.Fatalf("stream = %+v", msgs)
	}
	if engine.lastCriteria.City != "paris" {
		t.Errorf("criteria = %+v", engine.lastCriteria)
	}
}

func TestWebsocketDetectWithoutIdentityCloses(t *testing.T) {
	engine := &fakeEngine{messages: defaultStream()}
	srv := newTestServer(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	err = wsjson.Write(ctx, conn, wsRequest{
		Mode:   "detect",
		Detect: &DetectRequest{Title: "t", StartsAt: "2026-03-21T23:00:00Z"},
	})
	if err != nil {
		t.Fatalf("write request: %v", err)
	}

	var msg radar.Message
	if err := wsjson.Read(ctx, conn, &msg); err == nil {
		t.Fatalf("expected the connection to close, got %+v", msg)
	}
	if engine.radarCalls != 0 {
		t.Error("engine ran without caller identity")
	}
}

func TestWebsocketDetectWithIdentity(t *testing.T) {
	engine := &fakeEngine{messages: defaultStream()}
	srv := newTestServer(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv.URL), &websocket.DialOptions{
		HTTPHeader: http.Header{"X-Radar-User": []string{"alice"}},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	err = wsjson.Write(ctx, conn, wsRequest{
		Mode:   "detect",
		Detect: &DetectRequest{Title: "Warehouse rave", StartsAt: "2026-03-21T23:00:00Z"},
	})
	if err != nil {
		t.Fatalf("write request: %v", err)
	}

	var count int
	for {
		var msg radar.Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			break
		}
		count++
		if msg.Type == radar.MessageDone {
			break
		}
	}
	if count != 3 {
		t.Fatalf("read %d messages, want 3", count)
	}
	if engine.lastRequest.UserID != "alice" {
		t.Errorf("user = %q", engine.lastRequest.UserID)
	}
}
