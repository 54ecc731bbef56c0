package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/simonsays/internal/game"
)

// fixedState always snapshots the same state.
type fixedState game.State

func (f fixedState) Snapshot(fn func(game.State)) { fn(game.State(f)) }

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	return startHubWith(t, fixedState{Level: 1, Sequence: []game.Color{game.Red}})
}

func startHubWith(t *testing.T, src Snapshotter) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, src)
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeWS_Snapshot(t *testing.T) {
	_, srv, _ := startHub(t)
	conn := dial(t, srv)

	msg := readMessage(t, conn)
	assert.Equal(t, "snapshot", msg.Event)
	assert.Equal(t, 1, msg.GameState.Level)
	assert.Equal(t, []game.Color{game.Red}, msg.GameState.Sequence)
}

func TestPublish_FansOut(t *testing.T) {
	hub, srv, _ := startHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	readMessage(t, a) // snapshot => registered
	readMessage(t, b)

	hub.Publish(game.Event{
		Kind:  game.EventAdvance,
		State: game.State{Level: 2, Sequence: []game.Color{game.Blue, game.Green}, HighScore: 1},
	})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, "advance", msg.Event)
		assert.Equal(t, 2, msg.GameState.Level)
		assert.Equal(t, 1, msg.GameState.HighScore)
	}
}

func TestServeWS_JoinsAfterSnapshottedEvents(t *testing.T) {
	g, err := game.New()
	require.NoError(t, err)
	hub, srv, _ := startHubWith(t, g)
	g2, err := game.New(game.WithListener(hub.Publish))
	require.NoError(t, err)

	// Queued before the client exists; none of these may reach it.
	for range 20 {
		g2.Reset()
	}
	conn := dial(t, srv)
	assert.Equal(t, "snapshot", readMessage(t, conn).Event)

	hub.Publish(game.Event{Kind: game.EventFail, State: game.State{Level: 1, HighScore: 7}})
	msg := readMessage(t, conn)
	assert.Equal(t, "fail", msg.Event)
	assert.Equal(t, 7, msg.GameState.HighScore)
}

func TestServeWS_SnapshotMatchesLastEvent(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	g, err := game.New(game.WithListener(hub.Publish))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, g)
	}))
	t.Cleanup(srv.Close)

	// Fewer transitions than a client's send buffer, racing the join.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range sendBuffer - 8 {
			_, _ = g.Submit(g.State().Sequence)
			time.Sleep(time.Millisecond)
		}
	}()
	conn := dial(t, srv)
	first := readMessage(t, conn)
	<-done
	require.Equal(t, "snapshot", first.Event)

	// Drain until quiet; the last frame must be the live state.
	last := first
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		last = msg
	}
	assert.Equal(t, g.State(), last.GameState)
}

func TestRun_CancelClosesClients(t *testing.T) {
	hub, srv, cancel := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)

	cancel()
	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestPublish_AfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	<-hub.Done()

	done := make(chan struct{})
	go func() {
		for range 200 {
			hub.Publish(game.Event{Kind: game.EventReset, State: game.State{Level: 1}})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stopped hub")
	}
}

func TestServeWS_RejectsPlainHTTP(t *testing.T) {
	_, srv, _ := startHub(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
