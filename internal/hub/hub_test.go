package hub

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/livepolls/polling-service/internal/models"
)

// fakeConn is a test double for a websocket connection. ReadMessage blocks
// until the connection is closed, like a real socket with a silent peer.
type fakeConn struct {
	mu         sync.Mutex
	messages   [][]byte
	failWrites bool

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn(failWrites bool) *fakeConn {
	return &fakeConn{failWrites: failWrites, closed: make(chan struct{})}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("write: broken pipe")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	f.messages = append(f.messages, buf)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("use of closed connection")
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.messages))
	copy(out, f.messages)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := New(testLogger())

	conns := []*fakeConn{newFakeConn(false), newFakeConn(false), newFakeConn(false)}
	for _, fc := range conns {
		h.Serve(fc)
	}

	results := []models.OptionResult{{ID: "o1", OptionText: "Go", VoteCount: 3}}
	h.BroadcastPollUpdate("p1", results)
	h.BroadcastLeaderboardUpdate([]models.LeaderboardEntry{{Title: "Best Language?", OptionText: "Go", VoteCount: 3}})

	for i, fc := range conns {
		fc := fc
		waitFor(t, func() bool { return len(fc.received()) == 2 }, "both broadcasts delivered")

		var poll models.PollUpdate
		if err := json.Unmarshal(fc.received()[0], &poll); err != nil {
			t.Fatalf("conn %d: invalid poll update JSON: %v", i, err)
		}
		if poll.Type != models.MessageTypePollUpdate || poll.PollID != "p1" {
			t.Fatalf("conn %d: unexpected poll update %+v", i, poll)
		}
		if len(poll.Results) != 1 || poll.Results[0].VoteCount != 3 {
			t.Fatalf("conn %d: unexpected results %+v", i, poll.Results)
		}

		var lb models.LeaderboardUpdate
		if err := json.Unmarshal(fc.received()[1], &lb); err != nil {
			t.Fatalf("conn %d: invalid leaderboard JSON: %v", i, err)
		}
		if lb.Type != models.MessageTypeLeaderboardUpdate || len(lb.Leaderboard) != 1 {
			t.Fatalf("conn %d: unexpected leaderboard update %+v", i, lb)
		}
	}
}

// A send failure on one connection must not prevent delivery to the rest,
// and the failing connection must leave the registry.
func TestFailingSubscriberIsIsolated(t *testing.T) {
	h := New(testLogger())

	healthy1 := newFakeConn(false)
	broken := newFakeConn(true)
	healthy2 := newFakeConn(false)
	h.Serve(healthy1)
	h.Serve(broken)
	h.Serve(healthy2)

	h.BroadcastPollUpdate("p1", []models.OptionResult{{ID: "o1", OptionText: "Go", VoteCount: 1}})

	waitFor(t, func() bool { return len(healthy1.received()) == 1 }, "delivery to healthy subscriber 1")
	waitFor(t, func() bool { return len(healthy2.received()) == 1 }, "delivery to healthy subscriber 2")
	waitFor(t, func() bool { return h.Len() == 2 }, "failing subscriber removed")

	if len(broken.received()) != 0 {
		t.Fatalf("broken conn recorded %d messages, want 0", len(broken.received()))
	}
}

// A subscriber that registers after events were aggregated sees only
// subsequent broadcasts; there is no replay of past snapshots.
func TestLateSubscriberGetsNoBackfill(t *testing.T) {
	h := New(testLogger())

	early := newFakeConn(false)
	h.Serve(early)
	h.BroadcastPollUpdate("p1", []models.OptionResult{{ID: "o1", OptionText: "Go", VoteCount: 1}})
	h.BroadcastPollUpdate("p1", []models.OptionResult{{ID: "o1", OptionText: "Go", VoteCount: 2}})
	waitFor(t, func() bool { return len(early.received()) == 2 }, "early subscriber caught up")

	late := newFakeConn(false)
	h.Serve(late)
	if got := len(late.received()); got != 0 {
		t.Fatalf("late subscriber got %d backfilled messages, want 0", got)
	}

	h.BroadcastPollUpdate("p1", []models.OptionResult{{ID: "o1", OptionText: "Go", VoteCount: 3}})
	waitFor(t, func() bool { return len(late.received()) == 1 }, "late subscriber gets new broadcast")
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h := New(testLogger())

	c := h.Serve(newFakeConn(false))
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}

	h.Unregister(c)
	h.Unregister(c) // second removal is a no-op, must not panic

	if h.Len() != 0 {
		t.Fatalf("Len = %d, want 0", h.Len())
	}
}

// A client whose send queue is full is dropped rather than blocking the
// broadcast. The client here has no write pump, so nothing drains its queue.
func TestSlowSubscriberIsDropped(t *testing.T) {
	h := New(testLogger())

	stalled := &Client{hub: h, conn: newFakeConn(false), send: make(chan []byte, sendBuffer)}
	h.Register(stalled)

	for i := 0; i <= sendBuffer; i++ {
		h.BroadcastLeaderboardUpdate(nil)
	}

	if h.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after queue overflow", h.Len())
	}
}

// Closing the peer side of the socket removes the connection from the
// registry via the read pump.
func TestPeerCloseRemovesConnection(t *testing.T) {
	h := New(testLogger())

	fc := newFakeConn(false)
	h.Serve(fc)
	waitFor(t, func() bool { return h.Len() == 1 }, "registration")

	fc.Close()
	waitFor(t, func() bool { return h.Len() == 0 }, "removal on close")
}
