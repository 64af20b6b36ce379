package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
)

// CatalogClient wraps the REST backend that owns session/group records,
// playlist persistence, and third-party track resolution. The sync service
// consumes it through this narrow surface only.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
	cache      map[string]*cachedSession
	cacheTTL   time.Duration
	mu         sync.RWMutex
}

type cachedSession struct {
	info      *SessionInfo
	expiresAt time.Time
}

// SessionInfo is the backend's record of an audio session.
type SessionInfo struct {
	ID           string    `json:"id"`
	GroupID      string    `json:"group_id"`
	Status       string    `json:"status"` // "active", "closed"
	ControllerID string    `json:"controller_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TrackResolution is a freshly resolved playable reference for a track.
type TrackResolution struct {
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url,omitempty"`
	ExpiresAt  int64  `json:"expires_at,omitempty"`
}

type sessionResponse struct {
	Success bool         `json:"success"`
	Data    *SessionInfo `json:"data"`
	Error   string       `json:"error,omitempty"`
}

type resolveResponse struct {
	Success bool             `json:"success"`
	Data    *TrackResolution `json:"data"`
	Error   string           `json:"error,omitempty"`
}

// NewCatalogClient creates a new backend client.
func NewCatalogClient(baseURL string, cacheTTL time.Duration) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache:    make(map[string]*cachedSession),
		cacheTTL: cacheTTL,
	}
}

// GetSession retrieves session information by ID.
func (c *CatalogClient) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if info := c.getFromCache(sessionID); info != nil {
		return info, nil
	}

	reqURL := fmt.Sprintf("%s/api/v1/audio/sessions/%s", c.baseURL, url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrSessionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status: %d", resp.StatusCode)
	}

	var sessResp sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sessResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !sessResp.Success || sessResp.Data == nil {
		return nil, fmt.Errorf("catalog service error: %s", sessResp.Error)
	}

	c.addToCache(sessionID, sessResp.Data)
	return sessResp.Data, nil
}

// ResolveTrack asks the backend to resolve a third-party track reference
// into a playable URL.
func (c *CatalogClient) ResolveTrack(ctx context.Context, source, externalRef string) (*TrackResolution, error) {
	reqURL := fmt.Sprintf("%s/api/v1/music/resolve?source=%s&ref=%s",
		c.baseURL, url.QueryEscape(source), url.QueryEscape(externalRef))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTrackNotFound
	}
	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrTrackRestricted
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status: %d", resp.StatusCode)
	}

	var resResp resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&resResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !resResp.Success || resResp.Data == nil {
		return nil, fmt.Errorf("catalog service error: %s", resResp.Error)
	}
	return resResp.Data, nil
}

// SaveController persists a controller change. Failures are the caller's
// to log; socket notification proceeds regardless.
func (c *CatalogClient) SaveController(ctx context.Context, sessionID, userID string) error {
	body := map[string]string{"controller_id": userID}
	return c.put(ctx, fmt.Sprintf("/api/v1/audio/sessions/%s/music/controller", url.PathEscape(sessionID)), body)
}

// SavePlaylist persists the full ordered playlist for a session.
func (c *CatalogClient) SavePlaylist(ctx context.Context, sessionID string, playlist domain.Playlist) error {
	body := map[string]interface{}{"playlist": playlist}
	return c.put(ctx, fmt.Sprintf("/api/v1/audio/sessions/%s/music/playlist", url.PathEscape(sessionID)), body)
}

func (c *CatalogClient) put(ctx context.Context, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("catalog service returned status: %d", resp.StatusCode)
	}
	return nil
}

// InvalidateCache removes a session from the cache.
func (c *CatalogClient) InvalidateCache(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, sessionID)
}

func (c *CatalogClient) getFromCache(sessionID string) *SessionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if cached, ok := c.cache[sessionID]; ok {
		if time.Now().Before(cached.expiresAt) {
			return cached.info
		}
	}
	return nil
}

func (c *CatalogClient) addToCache(sessionID string, info *SessionInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[sessionID] = &cachedSession{
		info:      info,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}

// Errors
var (
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrTrackNotFound   = fmt.Errorf("track not found")
	ErrTrackRestricted = fmt.Errorf("track restricted")
)
