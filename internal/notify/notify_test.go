package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSend_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/events" {
			t.Fatalf("path = %s, want /api/events", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("content-type = %q", ct)
		}

		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Type != EventQuoteSent {
			t.Fatalf("event type = %q, want %q", ev.Type, EventQuoteSent)
		}
		if ev.Data["quote_number"] != "Q-20260301-4F2A9C1D" {
			t.Fatalf("unexpected data: %+v", ev.Data)
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := client.Send(ctx, Event{
		Type: EventQuoteSent,
		Data: map[string]string{"quote_number": "Q-20260301-4F2A9C1D"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSend_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := client.Send(ctx, Event{Type: EventOrderStatusChanged}); err == nil {
		t.Fatalf("expected error for 400 response")
	}
}

func TestSend_Unconfigured(t *testing.T) {
	var client *Client
	if err := client.Send(context.Background(), Event{Type: EventContractSent}); err == nil {
		t.Fatalf("expected error for nil client")
	}

	empty := NewClient("")
	if err := empty.Send(context.Background(), Event{Type: EventContractSent}); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}
