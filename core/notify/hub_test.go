package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAfterStopDoesNotBlock(t *testing.T) {
	hub := NewFeedHub()
	go hub.Run()
	hub.Stop()

	client := &Client{Hub: hub, Send: make(chan []byte, 1)}

	returned := make(chan struct{})
	go func() {
		hub.Register(client)
		hub.Unregister(client)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Register blocked after the hub was stopped")
	}
}

func TestBroadcastRoutesToModeratorsAndOwner(t *testing.T) {
	hub := NewFeedHub()
	go hub.Run()

	mod := &Client{Hub: hub, Send: make(chan []byte, 4), UserID: 100, Moderator: true}
	artist := &Client{Hub: hub, Send: make(chan []byte, 4), UserID: 7}
	other := &Client{Hub: hub, Send: make(chan []byte, 4), UserID: 8}
	hub.Register(mod)
	hub.Register(artist)
	hub.Register(other)

	// Register 与 broadcast 走同一个主循环，先到先处理
	time.Sleep(20 * time.Millisecond)
	hub.Broadcast(7, FeedEvent{ReleaseID: "rel-1", Title: "Night Shift"})

	expectEvent := func(c *Client) {
		t.Helper()
		select {
		case payload := <-c.Send:
			assert.Contains(t, string(payload), "rel-1")
		case <-time.After(time.Second):
			t.Fatal("expected a feed event")
		}
	}
	expectEvent(mod)
	expectEvent(artist)

	select {
	case payload := <-other.Send:
		require.Failf(t, "unexpected event", "other artist received %s", payload)
	case <-time.After(50 * time.Millisecond):
	}

	hub.Unregister(mod)
	hub.Unregister(artist)
	hub.Unregister(other)
	hub.Stop()
}
