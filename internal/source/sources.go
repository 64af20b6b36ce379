package source

import (
	"context"
	"errors"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/client"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
)

// StreamSource serves the track's direct stream URL when it carries one.
// This is the preferred source for every platform.
type StreamSource struct{}

func (StreamSource) Name() string { return "stream" }

func (s StreamSource) Resolve(_ context.Context, track domain.Track) (string, error) {
	if track.URL == "" {
		return "", &SourceError{Source: s.Name(), Reason: ReasonNoReference}
	}
	return track.URL, nil
}

// CatalogSource asks the backend to resolve an external platform reference
// (Spotify, YouTube, Apple Music id) into a fresh stream URL. Platform
// refusals surface as restricted so the chain can fall back to the preview.
type CatalogSource struct {
	catalog *client.CatalogClient
}

// NewCatalogSource wraps the backend resolver as a chain source.
func NewCatalogSource(catalog *client.CatalogClient) *CatalogSource {
	return &CatalogSource{catalog: catalog}
}

func (*CatalogSource) Name() string { return "catalog" }

func (s *CatalogSource) Resolve(ctx context.Context, track domain.Track) (string, error) {
	if track.ExternalRef == "" || track.Source == domain.SourceLocal {
		return "", &SourceError{Source: s.Name(), Reason: ReasonNoReference}
	}

	res, err := s.catalog.ResolveTrack(ctx, track.Source, track.ExternalRef)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrTrackRestricted):
			return "", &SourceError{Source: s.Name(), Reason: ReasonRestricted, Err: err}
		case errors.Is(err, client.ErrTrackNotFound):
			return "", &SourceError{Source: s.Name(), Reason: ReasonUnavailable, Err: err}
		default:
			return "", &SourceError{Source: s.Name(), Reason: ReasonUpstream, Err: err}
		}
	}
	if res.URL == "" {
		return "", &SourceError{Source: s.Name(), Reason: ReasonUnavailable}
	}
	return res.URL, nil
}

// PreviewSource serves the cached preview clip. Last resort before the
// chain reports failure.
type PreviewSource struct{}

func (PreviewSource) Name() string { return "preview" }

func (s PreviewSource) Resolve(_ context.Context, track domain.Track) (string, error) {
	if track.PreviewURL == "" {
		return "", &SourceError{Source: s.Name(), Reason: ReasonNoReference}
	}
	return track.PreviewURL, nil
}
