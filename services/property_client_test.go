package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPropertyClientGetProperty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/properties/12" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 12,
			"hostID": 7,
			"capacity": 4,
			"pricePerNight": 150,
			"feeSchedule": {"serviceFeeRate": 0.12, "cleaningFee": 40, "taxRate": 0.08, "currency": "EUR"}
		}`))
	}))
	defer srv.Close()

	client := &HTTPPropertyClient{BaseURL: srv.URL, Client: srv.Client()}
	facts, err := client.GetProperty(context.Background(), 12)
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if facts.HostID != 7 || facts.PricePerNight != 150 {
		t.Errorf("facts = %+v", facts)
	}
	if facts.FeeSchedule.ServiceFeeRate != 0.12 || facts.FeeSchedule.Currency != "EUR" {
		t.Errorf("fee schedule = %+v", facts.FeeSchedule)
	}
}

func TestPropertyClientDefaultsFeeSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 12, "hostID": 7, "pricePerNight": 100}`))
	}))
	defer srv.Close()

	client := &HTTPPropertyClient{BaseURL: srv.URL, Client: srv.Client()}
	facts, err := client.GetProperty(context.Background(), 12)
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if facts.FeeSchedule != DefaultFeeSchedule() {
		t.Errorf("fee schedule = %+v, want reference defaults", facts.FeeSchedule)
	}
}

func TestPropertyClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := &HTTPPropertyClient{BaseURL: srv.URL, Client: srv.Client()}
	_, err := client.GetProperty(context.Background(), 99)
	if KindOf(err) != KindNotFound {
		t.Errorf("kind = %s, want %s", KindOf(err), KindNotFound)
	}
}

func TestPropertyClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := &HTTPPropertyClient{BaseURL: srv.URL, Client: srv.Client()}
	_, err := client.GetProperty(context.Background(), 12)
	if KindOf(err) != KindDependencyUnavailable {
		t.Errorf("kind = %s, want %s", KindOf(err), KindDependencyUnavailable)
	}
}

func TestPropertyClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := &HTTPPropertyClient{BaseURL: srv.URL, Client: &http.Client{Timeout: 20 * time.Millisecond}}
	_, err := client.GetProperty(context.Background(), 12)
	if KindOf(err) != KindDependencyUnavailable {
		t.Errorf("kind = %s, want %s", KindOf(err), KindDependencyUnavailable)
	}
}
