package webdav

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListDirectory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PROPFIND" {
			t.Errorf("method = %s, want PROPFIND", r.Method)
		}
		if r.Header.Get("Depth") != "1" {
			t.Errorf("Depth = %q, want 1", r.Header.Get("Depth"))
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "alice" || pass != "secret" {
			t.Error("basic auth credentials not forwarded")
		}
		w.Header().Set("Server", "nginx/1.24")
		w.WriteHeader(http.StatusMultiStatus)
		w.Write([]byte(nextcloudResponse))
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	listing, err := c.ListDirectory(context.Background(), "/docs")
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}
	if len(listing.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(listing.Entries))
	}
	if listing.ServerType != "nginx/1.24" {
		t.Errorf("server type = %q, want nginx/1.24", listing.ServerType)
	}
	if listing.ResponseSize == 0 || listing.ResponseTime <= 0 {
		t.Error("response metadata must be populated")
	}
}

func TestListDirectory_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(Config{URL: srv.URL})
	_, err := c.ListDirectory(context.Background(), "/docs")
	if err == nil {
		t.Fatal("expected an error for a 503 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error %q must carry the HTTP status for classification", err)
	}
}

func TestListDirectory_Cancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, _ := NewClient(Config{URL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ListDirectory(ctx, "/docs"); err == nil {
		t.Fatal("expected an error after cancellation")
	}
}
