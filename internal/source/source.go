package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
)

// FailureReason classifies why a source could not produce a playable URL.
type FailureReason string

const (
	ReasonNoReference FailureReason = "no_reference" // track carries nothing this source can use
	ReasonRestricted  FailureReason = "restricted"   // platform refused full-stream access
	ReasonUnavailable FailureReason = "unavailable"  // source reachable but track gone
	ReasonUpstream    FailureReason = "upstream"     // transport or backend failure
)

// SourceError is a single source's typed refusal.
type SourceError struct {
	Source string
	Reason FailureReason
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *SourceError) Unwrap() error { return e.Err }

// PlaybackSource resolves a track into a URL an audio element can play.
// A source that cannot serve the track returns a *SourceError so the chain
// can record the reason and fall through.
type PlaybackSource interface {
	Name() string
	Resolve(ctx context.Context, track domain.Track) (string, error)
}

// Resolution is the outcome of a successful chain resolution.
type Resolution struct {
	URL      string
	Source   string    // name of the source that succeeded
	Fallback bool      // true when an earlier source was skipped
	Attempts []Attempt // every source tried, in order
}

// Attempt records one source's failure before the chain moved on.
type Attempt struct {
	Source string        `json:"source"`
	Reason FailureReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// ChainError is returned when every source in the chain failed. It keeps
// the per-source reasons so the UI can tell the user what actually went
// wrong instead of a generic playback error.
type ChainError struct {
	TrackID  string
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("no playable source for track %s after %d attempts", e.TrackID, len(e.Attempts))
}

// Chain tries each source in its fixed order and returns the first success.
// Order is set at construction; there is no implicit fallback beyond it.
type Chain struct {
	sources []PlaybackSource
}

// NewChain builds a resolution chain. Sources are tried in argument order.
func NewChain(sources ...PlaybackSource) *Chain {
	return &Chain{sources: sources}
}

// Resolve walks the chain. Context cancellation aborts between sources.
func (c *Chain) Resolve(ctx context.Context, track domain.Track) (*Resolution, error) {
	attempts := make([]Attempt, 0, len(c.sources))

	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		url, err := src.Resolve(ctx, track)
		if err == nil && url != "" {
			return &Resolution{
				URL:      url,
				Source:   src.Name(),
				Fallback: len(attempts) > 0,
				Attempts: attempts,
			}, nil
		}

		var srcErr *SourceError
		if errors.As(err, &srcErr) {
			attempts = append(attempts, Attempt{
				Source: srcErr.Source,
				Reason: srcErr.Reason,
				Detail: detail(srcErr.Err),
			})
			continue
		}
		attempts = append(attempts, Attempt{
			Source: src.Name(),
			Reason: ReasonUpstream,
			Detail: detail(err),
		})
	}

	return nil, &ChainError{TrackID: track.ID, Attempts: attempts}
}

func detail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
