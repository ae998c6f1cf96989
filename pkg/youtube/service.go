// Package youtube implements metadata sources backed by the YouTube Data
// API v3, plus the offline helpers around them: video ID extraction from
// file names, title sanitization, and Data API timestamp parsing.
package youtube

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ServiceConfig holds the Data API connection settings.
type ServiceConfig struct {
	// APIKey authenticates requests. Required unless HTTPClient is set.
	APIKey string

	// HTTPClient overrides the transport. When set, authentication must
	// ride inside the client (see fetch.NewHTTPClient, which injects the
	// key per request); credential options are never combined with a
	// custom client.
	HTTPClient *http.Client

	// Endpoint overrides the API base URL. Tests point this at a local
	// mock server.
	Endpoint string
}

// NewService creates a Data API client.
func NewService(ctx context.Context, cfg ServiceConfig) (*youtube.Service, error) {
	var opts []option.ClientOption
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("youtube: an API key or HTTP client is required")
	}

	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}
