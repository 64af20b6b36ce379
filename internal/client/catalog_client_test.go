package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetSession_CachesResult(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"id":       "s1",
				"group_id": "g1",
				"status":   "active",
			},
		})
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		info, err := c.GetSession(ctx, "s1")
		if err != nil {
			t.Fatalf("GetSession() error = %v", err)
		}
		if info.GroupID != "g1" {
			t.Errorf("GroupID = %q, want g1", info.GroupID)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("backend hit %d times, want 1 (cached)", hits.Load())
	}
}

func TestGetSession_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, time.Minute)
	if _, err := c.GetSession(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestResolveTrack_StatusMapping(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"url": "https://cdn.example/resolved.mp3"},
		})
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, time.Minute)
	ctx := context.Background()

	res, err := c.ResolveTrack(ctx, "spotify", "sp:123")
	if err != nil || res.URL != "https://cdn.example/resolved.mp3" {
		t.Errorf("ResolveTrack() = %v, %v", res, err)
	}

	status = http.StatusForbidden
	if _, err := c.ResolveTrack(ctx, "spotify", "sp:123"); !errors.Is(err, ErrTrackRestricted) {
		t.Errorf("ResolveTrack() on 403 error = %v, want ErrTrackRestricted", err)
	}

	status = http.StatusNotFound
	if _, err := c.ResolveTrack(ctx, "spotify", "sp:123"); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("ResolveTrack() on 404 error = %v, want ErrTrackNotFound", err)
	}
}

func TestSaveController_SendsPut(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, time.Minute)
	if err := c.SaveController(context.Background(), "s1", "alice"); err != nil {
		t.Fatalf("SaveController() error = %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/v1/audio/sessions/s1/music/controller" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}
