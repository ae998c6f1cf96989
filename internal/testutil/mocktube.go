// Package testutil provides testing utilities for the hydrator.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// VideoSeed describes one video the mock Data API knows about.
type VideoSeed struct {
	ID          string
	Title       string
	Channel     string
	ChannelID   string
	Description string
	Duration    string // ISO 8601, e.g. "PT4M13S"
	PublishedAt string // RFC 3339
	Tags        []string
	ViewCount   uint64
	LikeCount   uint64
}

// ChannelSeed describes one channel the mock Data API knows about.
type ChannelSeed struct {
	ID              string
	Title           string
	Description     string
	CustomURL       string
	PublishedAt     string
	Country         string
	ViewCount       uint64
	SubscriberCount uint64
	VideoCount      uint64
}

type plannedFailure struct {
	status int
	reason string
}

// MockTube is a configurable stand-in for the Data API videos.list and
// channels.list endpoints. Ids absent from the seed data are silently
// omitted from responses, matching the real API.
type MockTube struct {
	server *httptest.Server

	mu       sync.Mutex
	videos   map[string]VideoSeed
	channels map[string]ChannelSeed
	failures []plannedFailure
	delay    time.Duration

	// Tracking
	RequestCount int
	IDBatches    [][]string
}

// NewMockTube creates a mock Data API server.
func NewMockTube() *MockTube {
	mock := &MockTube{
		videos:   make(map[string]VideoSeed),
		channels: make(map[string]ChannelSeed),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := splitIDs(r.URL.Query().Get("id"))

		mock.mu.Lock()
		mock.RequestCount++
		mock.IDBatches = append(mock.IDBatches, ids)
		var failure *plannedFailure
		if len(mock.failures) > 0 {
			failure = &mock.failures[0]
			mock.failures = mock.failures[1:]
		}
		delay := mock.delay
		mock.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if failure != nil {
			writeAPIError(w, failure.status, failure.reason)
			return
		}

		switch r.URL.Path {
		case "/youtube/v3/videos":
			mock.serveVideos(w, ids)
		case "/youtube/v3/channels":
			mock.serveChannels(w, ids)
		default:
			writeAPIError(w, http.StatusNotFound, "notFound")
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockTube) URL() string {
	return m.server.URL
}

// Client returns an HTTP client configured to reach the mock server.
func (m *MockTube) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockTube) Close() {
	m.server.Close()
}

// Reset clears tracking counters and planned failures.
func (m *MockTube) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.IDBatches = nil
	m.failures = nil
	m.delay = 0
}

// AddVideo seeds a video.
func (m *MockTube) AddVideo(seed VideoSeed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[seed.ID] = seed
}

// AddChannel seeds a channel.
func (m *MockTube) AddChannel(seed ChannelSeed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[seed.ID] = seed
}

// FailNext queues one API-shaped error response. Each call queues one
// additional failure; requests consume them in order before any seeded
// data is consulted.
func (m *MockTube) FailNext(status int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, plannedFailure{status: status, reason: reason})
}

// SetDelay makes every subsequent request sleep before responding.
func (m *MockTube) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Requests returns the number of requests made to the server.
func (m *MockTube) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// Batches returns the id set of every request received so far.
func (m *MockTube) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.IDBatches))
	for i, b := range m.IDBatches {
		out[i] = append([]string(nil), b...)
	}
	return out
}

func (m *MockTube) serveVideos(w http.ResponseWriter, ids []string) {
	resp := &youtube.VideoListResponse{Kind: "youtube#videoListResponse"}
	m.mu.Lock()
	for _, id := range ids {
		seed, ok := m.videos[id]
		if !ok {
			continue
		}
		resp.Items = append(resp.Items, &youtube.Video{
			Kind: "youtube#video",
			Id:   seed.ID,
			Snippet: &youtube.VideoSnippet{
				Title:        seed.Title,
				ChannelTitle: seed.Channel,
				ChannelId:    seed.ChannelID,
				Description:  seed.Description,
				PublishedAt:  seed.PublishedAt,
				Tags:         seed.Tags,
			},
			ContentDetails: &youtube.VideoContentDetails{Duration: seed.Duration},
			Statistics: &youtube.VideoStatistics{
				ViewCount: seed.ViewCount,
				LikeCount: seed.LikeCount,
			},
		})
	}
	m.mu.Unlock()
	writeJSON(w, resp)
}

func (m *MockTube) serveChannels(w http.ResponseWriter, ids []string) {
	resp := &youtube.ChannelListResponse{Kind: "youtube#channelListResponse"}
	m.mu.Lock()
	for _, id := range ids {
		seed, ok := m.channels[id]
		if !ok {
			continue
		}
		resp.Items = append(resp.Items, &youtube.Channel{
			Kind: "youtube#channel",
			Id:   seed.ID,
			Snippet: &youtube.ChannelSnippet{
				Title:       seed.Title,
				Description: seed.Description,
				CustomUrl:   seed.CustomURL,
				PublishedAt: seed.PublishedAt,
				Country:     seed.Country,
			},
			Statistics: &youtube.ChannelStatistics{
				ViewCount:       seed.ViewCount,
				SubscriberCount: seed.SubscriberCount,
				VideoCount:      seed.VideoCount,
			},
		})
	}
	m.mu.Unlock()
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// writeAPIError emits the error envelope the Data API uses, which the
// client surfaces as *googleapi.Error with the reason populated.
func writeAPIError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(status)
	body := map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": reason,
			"errors": []map[string]any{
				{"reason": reason, "domain": "youtube.quota", "message": reason},
			},
		},
	}
	json.NewEncoder(w).Encode(body)
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// NewTestService builds a Data API client wired to the mock server.
func NewTestService(t *testing.T, mock *MockTube) *youtube.Service {
	t.Helper()
	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(mock.URL()+"/"),
		option.WithHTTPClient(mock.Client()),
	)
	if err != nil {
		t.Fatalf("youtube.NewService() error = %v", err)
	}
	return svc
}
