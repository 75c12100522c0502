package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer(&Config{
		Port:   0, // random available port
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	time.Sleep(100 * time.Millisecond)
	return server
}

func dialTestClient(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(&Config{
		Port:   0,
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketConnection(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dialTestClient(t, ctx, server)

	// Connection registration is asynchronous on the server side.
	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}
}

func TestEventBroadcast(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialTestClient(t, ctx, server)

	server.Publish(EventHealComplete, HealCompleteData{
		Path:       "/src/service.py",
		DurationMs: 42,
	})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}

	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}
	if evt.Type != EventHealComplete {
		t.Errorf("Expected event type %s, got %s", EventHealComplete, evt.Type)
	}

	var healData HealCompleteData
	if err := json.Unmarshal(evt.Data, &healData); err != nil {
		t.Fatalf("Failed to unmarshal heal data: %v", err)
	}
	if healData.Path != "/src/service.py" {
		t.Errorf("Expected path /src/service.py, got %s", healData.Path)
	}
	if healData.DurationMs != 42 {
		t.Errorf("Expected duration 42ms, got %d", healData.DurationMs)
	}
}

func TestMultipleClients(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	numClients := 3
	conns := make([]*websocket.Conn, numClients)
	for i := 0; i < numClients; i++ {
		conns[i] = dialTestClient(t, ctx, server)
	}

	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() != numClients && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if count := server.ClientCount(); count != numClients {
		t.Fatalf("Expected %d clients, got %d", numClients, count)
	}

	server.Publish(EventFileQueued, FileQueuedData{Path: "/src/a.py"})

	for i, conn := range conns {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Client %d failed to read broadcast: %v", i, err)
		}
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("Client %d got invalid event: %v", i, err)
		}
		if evt.Type != EventFileQueued {
			t.Errorf("Client %d got event type %s", i, evt.Type)
		}
	}
}

func TestHandlerHealEvents(t *testing.T) {
	server := startTestServer(t)
	handler := NewHandler(server, log.New(os.Stderr, "[test-handler] ", log.LstdFlags))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialTestClient(t, ctx, server)

	handler.OnHealComplete("/src/a.py", 120*time.Millisecond, nil)

	// heal_complete arrives first, then the stats refresh.
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read heal event: %v", err)
	}
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}
	if evt.Type != EventHealComplete {
		t.Errorf("Expected %s, got %s", EventHealComplete, evt.Type)
	}

	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read stats event: %v", err)
	}
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("Failed to unmarshal stats event: %v", err)
	}
	if evt.Type != EventStats {
		t.Errorf("Expected %s, got %s", EventStats, evt.Type)
	}

	var stats StatsData
	if err := json.Unmarshal(evt.Data, &stats); err != nil {
		t.Fatalf("Failed to unmarshal stats: %v", err)
	}
	if stats.Total != 1 || stats.Succeeded != 1 || stats.Failed != 0 {
		t.Errorf("Stats = %+v, want {1 1 0}", stats)
	}
}

func TestHandlerTracksFailures(t *testing.T) {
	server := startTestServer(t)
	handler := NewHandler(server, log.New(os.Stderr, "[test-handler] ", log.LstdFlags))

	handler.OnHealComplete("/src/a.py", time.Millisecond, nil)
	handler.OnHealFailed("/src/b.py", "rewrite", errors.New("unbalanced brackets"))

	stats := handler.GetStats()
	if stats.Total != 2 || stats.Succeeded != 1 || stats.Failed != 1 {
		t.Errorf("Stats = %+v, want {2 1 1}", stats)
	}
}

func TestHandlerSeedStats(t *testing.T) {
	server := startTestServer(t)
	handler := NewHandler(server, log.New(os.Stderr, "[test-handler] ", log.LstdFlags))

	handler.SeedStats(10, 8, 2)
	handler.OnHealComplete("/src/a.py", time.Millisecond, nil)

	stats := handler.GetStats()
	if stats.Total != 11 || stats.Succeeded != 9 || stats.Failed != 2 {
		t.Errorf("Stats = %+v, want {11 9 2}", stats)
	}
}
