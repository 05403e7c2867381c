package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "swatches/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("X-Token") != "abc" {
			t.Errorf("X-Token = %q, want abc", r.Header.Get("X-Token"))
		}
		_, _ = w.Write([]byte(`{"website":"example.com"}`))
	}))
	defer server.Close()

	data, err := Fetch(context.Background(), server.URL, FetchOptions{Headers: map[string]string{"X-Token": "abc"}})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != `{"website":"example.com"}` {
		t.Errorf("Fetch() = %s", data)
	}
}

func TestFetchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := Fetch(context.Background(), server.URL, FetchOptions{})
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Errorf("Fetch() error = %v, want HTTP 404", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	if _, err := Fetch(context.Background(), server.URL, FetchOptions{Timeout: 20 * time.Millisecond}); err == nil {
		t.Error("Fetch() expected timeout error")
	}
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		var got map[string]string
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("body is not JSON: %v", err)
		}
		if got["newColorValue"] != "#fff" {
			t.Errorf("newColorValue = %q, want #fff", got["newColorValue"])
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if _, err := PostJSON(context.Background(), server.URL, map[string]string{"newColorValue": "#fff"}, FetchOptions{}); err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
}
