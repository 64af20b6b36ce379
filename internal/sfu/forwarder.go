package sfu

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
)

// Forwarder fans one producer's RTP stream out to every consumer through a
// shared local track. Pausing drops packets at the forwarder, so no
// renegotiation happens on mute.
type Forwarder struct {
	ProducerID string
	UserID     string

	local  *webrtc.TrackLocalStaticRTP
	paused atomic.Bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewForwarder builds a forwarder with a local Opus track mirroring the
// producer's stream ids.
func NewForwarder(producerID, userID string, remote *webrtc.TrackRemote) (*Forwarder, error) {
	local, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		remote.ID(),
		remote.StreamID(),
	)
	if err != nil {
		return nil, err
	}
	return &Forwarder{
		ProducerID: producerID,
		UserID:     userID,
		local:      local,
		done:       make(chan struct{}),
	}, nil
}

// Track returns the local track consumers attach to.
func (f *Forwarder) Track() webrtc.TrackLocal {
	return f.local
}

// SetPaused toggles packet forwarding. Paused producers keep the RTP read
// loop alive so resume is instant.
func (f *Forwarder) SetPaused(paused bool) {
	f.paused.Store(paused)
}

// Paused reports whether forwarding is suspended.
func (f *Forwarder) Paused() bool {
	return f.paused.Load()
}

// Run pumps RTP from the remote track into the local track until the
// remote closes or Close is called. Intended to run in its own goroutine.
func (f *Forwarder) Run(remote *webrtc.TrackRemote) {
	for {
		select {
		case <-f.done:
			return
		default:
		}

		pkt, _, err := remote.ReadRTP()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				pkglog.L().Debug().Err(err).
					Str(pkglog.FieldProducerID, f.ProducerID).
					Msg("producer stream ended")
			}
			return
		}

		if f.paused.Load() {
			continue
		}

		if err := f.local.WriteRTP(pkt); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			pkglog.L().Debug().Err(err).
				Str(pkglog.FieldProducerID, f.ProducerID).
				Msg("failed to forward rtp packet")
		}
	}
}

// Close stops the forwarding loop.
func (f *Forwarder) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
	})
}
