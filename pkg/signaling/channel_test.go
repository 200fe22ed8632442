package signaling

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newEchoGateway starts a test gateway that answers every audio frame with
// a canned response frame.
func newEchoGateway(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("session") == "" {
			http.Error(w, "missing session", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := ParseMessage(raw)
			if err != nil || msg.Type != TypeAudio {
				continue
			}
			reply := &Message{Type: TypeResponse, Text: "echo", Audio: msg.Audio}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketChannel_RoundTrip(t *testing.T) {
	srv := newEchoGateway(t)
	dialer := &WebSocketDialer{URL: wsURL(srv)}

	conn, err := dialer.Dial(context.Background(), "sess-ws")
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer conn.Close()

	if err := conn.Send(context.Background(), NewAudio([]byte{9, 9}, "audio/pcm")); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	select {
	case in := <-conn.Messages():
		if in.Err != nil {
			t.Fatalf("Incoming.Err = %v", in.Err)
		}
		if in.Msg.Type != TypeResponse || in.Msg.Text != "echo" {
			t.Errorf("unexpected reply: %+v", in.Msg)
		}
		if len(in.Msg.Audio) != 2 {
			t.Errorf("audio len = %d; want 2", len(in.Msg.Audio))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply from gateway")
	}
}

func TestWebSocketChannel_SendAfterClose(t *testing.T) {
	srv := newEchoGateway(t)
	dialer := &WebSocketDialer{URL: wsURL(srv)}

	conn, err := dialer.Dial(context.Background(), "sess-ws")
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := conn.Send(context.Background(), NewEnd()); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after close = %v; want ErrClosed", err)
	}
	// Close is idempotent.
	if err := conn.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}

func TestWebSocketDialer_Refused(t *testing.T) {
	dialer := &WebSocketDialer{URL: "ws://127.0.0.1:1", HandshakeTimeout: time.Second}
	if _, err := dialer.Dial(context.Background(), "sess"); err == nil {
		t.Fatal("Dial succeeded against closed port")
	}
}
