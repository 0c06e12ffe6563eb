package ws

import (
	"encoding/json"
	"testing"
)

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewOpsHub()
	a := &Client{Send: make(chan []byte, 4)}
	b := &Client{Send: make(chan []byte, 4)}
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(map[string]string{"type": "ORDER_CONFIRMED"})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			var decoded map[string]string
			if err := json.Unmarshal(msg, &decoded); err != nil {
				t.Fatalf("broadcast payload not json: %v", err)
			}
			if decoded["type"] != "ORDER_CONFIRMED" {
				t.Fatalf("unexpected payload: %v", decoded)
			}
		default:
			t.Fatal("client did not receive the broadcast")
		}
	}
}

func TestBroadcastSkipsSlowConsumer(t *testing.T) {
	hub := NewOpsHub()
	slow := &Client{Send: make(chan []byte, 1)}
	fast := &Client{Send: make(chan []byte, 4)}
	hub.Register(slow)
	hub.Register(fast)

	hub.Broadcast("one")
	hub.Broadcast("two") // slow's buffer is full now

	if len(fast.Send) != 2 {
		t.Fatalf("fast client got %d messages, want 2", len(fast.Send))
	}
	if len(slow.Send) != 1 {
		t.Fatalf("slow client should be skipped, not blocked: %d", len(slow.Send))
	}
}

func TestCloseUnregistersAndIsIdempotent(t *testing.T) {
	hub := NewOpsHub()
	c := &Client{Send: make(chan []byte, 1)}
	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("count = %d, want 1", hub.ClientCount())
	}
	c.Close()
	c.Close() // second close must not panic
	if hub.ClientCount() != 0 {
		t.Fatalf("count = %d after close, want 0", hub.ClientCount())
	}
	hub.Broadcast("after close") // must not panic on the closed channel
}
