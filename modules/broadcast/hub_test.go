package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/example/taskboard/domain/task"
)

// fakeConn records every frame written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) lastFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})
	return hub
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := startHub(t)

	conns := make([]*fakeConn, 3)
	for i, id := range []string{"c1", "c2", "c3"} {
		conns[i] = &fakeConn{}
		hub.Register(&Client{ID: id, UserID: "u1", Username: "alice", Conn: conns[i]})
	}
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	hub.Broadcast(WSBroadcast{
		Type: MessageTaskUpdated,
		Task: &task.View{ID: "t1", Title: "Shared"},
	})

	for _, conn := range conns {
		conn := conn
		waitFor(t, func() bool { return conn.frameCount() == 1 })

		var msg WSBroadcast
		if err := json.Unmarshal(conn.lastFrame(), &msg); err != nil {
			t.Fatalf("failed to decode frame: %v", err)
		}
		if msg.Type != MessageTaskUpdated {
			t.Errorf("expected type %q, got %q", MessageTaskUpdated, msg.Type)
		}
		if msg.Task == nil || msg.Task.ID != "t1" {
			t.Errorf("expected task t1, got %+v", msg.Task)
		}
	}

	// Exactly once per client, no duplicates trailing in.
	time.Sleep(20 * time.Millisecond)
	for i, conn := range conns {
		if n := conn.frameCount(); n != 1 {
			t.Errorf("client %d: expected exactly 1 frame, got %d", i, n)
		}
	}
}

func TestHub_UnregisteredClientStopsReceiving(t *testing.T) {
	hub := startHub(t)

	stay := &fakeConn{}
	leave := &fakeConn{}
	staying := &Client{ID: "stay", Conn: stay}
	leaving := &Client{ID: "leave", Conn: leave}
	hub.Register(staying)
	hub.Register(leaving)
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.Unregister(leaving)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(WSBroadcast{Type: MessageTaskDeleted, TaskID: "t9"})
	waitFor(t, func() bool { return stay.frameCount() == 1 })

	if leave.frameCount() != 0 {
		t.Errorf("expected unregistered client to receive nothing, got %d frames", leave.frameCount())
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	conn := &fakeConn{}
	hub.Register(&Client{ID: "c1", Conn: conn})
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	hub.Wait()

	conn.mu.Lock()
	closed := conn.closed
	conn.mu.Unlock()
	if !closed {
		t.Error("expected client connection closed on shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients after shutdown, got %d", hub.ClientCount())
	}
}
