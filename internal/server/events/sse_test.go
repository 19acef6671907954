package events

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEventType(t *testing.T, sc *bufio.Scanner) EventType {
	t.Helper()
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "event: ") {
			return EventType(strings.TrimPrefix(line, "event: "))
		}
	}
	require.NoError(t, sc.Err())
	t.Fatal("stream ended")
	return ""
}

func TestSSEServer_Stream(t *testing.T) {
	hub := NewSSEServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	ts := httptest.NewServer(hub)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "?filiere=it")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	assert.Equal(t, EventConnected, readEventType(t, sc))
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast(NewEvent(EventFiliereUpdated, nil).WithFiliere("rh"))
	hub.Broadcast(NewEvent(EventEventAdded, EventAddedData{Date: "2025-03-01", Titre: "COSUI"}).WithFiliere("it"))
	assert.Equal(t, EventEventAdded, readEventType(t, sc), "events of other filières are skipped")

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestShouldSend(t *testing.T) {
	tests := []struct {
		name   string
		client *SSEClient
		event  *Event
		want   bool
	}{
		{"no filter", &SSEClient{}, NewEvent(EventDocumentSaved, nil), true},
		{"type filter match", &SSEClient{Filters: []EventType{EventDocumentSaved}}, NewEvent(EventDocumentSaved, nil), true},
		{"type filter miss", &SSEClient{Filters: []EventType{EventDocumentSaved}}, NewEvent(EventEventAdded, nil), false},
		{"filiere match", &SSEClient{Filiere: "it"}, NewEvent(EventFiliereUpdated, nil).WithFiliere("it"), true},
		{"filiere miss", &SSEClient{Filiere: "it"}, NewEvent(EventFiliereUpdated, nil).WithFiliere("rh"), false},
		{"document events reach filiere clients", &SSEClient{Filiere: "it"}, NewEvent(EventDocumentChanged, nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldSend(tt.client, tt.event))
		})
	}
}

func TestBroadcast_NeverBlocks(t *testing.T) {
	hub := NewSSEServer()

	for i := 0; i < 500; i++ {
		hub.Broadcast(NewEvent(EventDocumentSaved, nil))
	}
}
