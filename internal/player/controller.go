package player

import (
	"context"
	"sync"
	"time"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/playlist"
	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
)

// Transport carries controller commands to the rest of the session.
type Transport interface {
	SendCommand(cmd domain.Command) error
	SendPositionSync(cmd domain.Command) error
}

// Controller is the command side of the playback engine, active only while
// this client holds session control. Commands apply locally first, then go
// out stamped with a monotonic sequence number and the controller epoch.
type Controller struct {
	deck      *Deck
	transport Transport
	now       func() time.Time

	mu    sync.Mutex
	epoch int64
	seq   int64
}

// NewController creates a controller over the deck and transport.
func NewController(deck *Deck, transport Transport, epoch int64) *Controller {
	return &Controller{deck: deck, transport: transport, epoch: epoch, now: time.Now}
}

// SetEpoch updates the controller epoch after a control handover and
// resets the sequence counter, so the new generation starts from seq 1.
func (c *Controller) SetEpoch(epoch int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.epoch = epoch
		c.seq = 0
	}
}

func (c *Controller) stamp(cmd domain.Command) domain.Command {
	c.mu.Lock()
	c.seq++
	cmd.Seq = c.seq
	cmd.Epoch = c.epoch
	c.mu.Unlock()
	cmd.Timestamp = c.now().UnixMilli()
	return cmd
}

// Play resumes local playback and broadcasts the command.
func (c *Controller) Play() error {
	if err := c.deck.Play(); err != nil {
		return err
	}
	return c.transport.SendCommand(c.stamp(domain.Command{
		Action:    domain.ActionPlay,
		Position:  c.deck.Position(),
		IsPlaying: true,
	}))
}

// Pause pauses local playback and broadcasts the command.
func (c *Controller) Pause() error {
	if err := c.deck.Pause(); err != nil {
		return err
	}
	return c.transport.SendCommand(c.stamp(domain.Command{
		Action:   domain.ActionPause,
		Position: c.deck.Position(),
	}))
}

// Seek moves the local position and broadcasts the command.
func (c *Controller) Seek(position float64) error {
	if err := c.deck.Seek(position); err != nil {
		return err
	}
	return c.transport.SendCommand(c.stamp(domain.Command{
		Action:    domain.ActionSeek,
		Position:  position,
		IsPlaying: c.deck.IsPlaying(),
	}))
}

// ChangeTrack loads a track locally and broadcasts the change. With
// autoPlay the track starts immediately on every client.
func (c *Controller) ChangeTrack(ctx context.Context, track domain.Track, autoPlay bool) error {
	if err := c.deck.LoadTrack(ctx, track); err != nil {
		return err
	}
	if autoPlay {
		if err := c.deck.Play(); err != nil {
			return err
		}
	}
	t := track
	return c.transport.SendCommand(c.stamp(domain.Command{
		Action:    domain.ActionChangeTrack,
		Track:     &t,
		TrackID:   track.ID,
		AutoPlay:  autoPlay,
		IsPlaying: autoPlay,
	}))
}

// Next advances to the following playlist track, starts it locally, and
// broadcasts the change. Also used when a track finishes on its own.
func (c *Controller) Next(ctx context.Context, coord *playlist.Coordinator) error {
	track, ok := coord.Next()
	if !ok {
		return ErrNoTrack
	}
	if err := c.deck.LoadTrack(ctx, track); err != nil {
		return err
	}
	if err := c.deck.Play(); err != nil {
		return err
	}
	t := track
	return c.transport.SendCommand(c.stamp(domain.Command{
		Action:    domain.ActionNext,
		Track:     &t,
		TrackID:   track.ID,
		AutoPlay:  true,
		IsPlaying: true,
	}))
}

// Previous steps back a track when pressed within the grace window of the
// current one, otherwise restarts it. The elapsed position travels with the
// command so the session registry makes the same decision.
func (c *Controller) Previous(ctx context.Context, coord *playlist.Coordinator) error {
	elapsed := c.deck.Position()
	track, moved, ok := coord.Previous(elapsed)
	if !ok {
		return ErrNoTrack
	}
	if moved {
		if err := c.deck.LoadTrack(ctx, track); err != nil {
			return err
		}
	} else if err := c.deck.Seek(0); err != nil {
		return err
	}
	if err := c.deck.Play(); err != nil {
		return err
	}
	t := track
	return c.transport.SendCommand(c.stamp(domain.Command{
		Action:    domain.ActionPrevious,
		Position:  elapsed,
		Track:     &t,
		TrackID:   track.ID,
		AutoPlay:  true,
		IsPlaying: true,
	}))
}

// RunPositionSync broadcasts the authoritative position at the given
// interval while the deck is playing, until the context ends. Intended to
// run in its own goroutine for the duration of control tenure.
func (c *Controller) RunPositionSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.deck.IsPlaying() {
				continue
			}
			cmd := c.stamp(domain.Command{
				Position:  c.deck.Position(),
				IsPlaying: true,
			})
			if err := c.transport.SendPositionSync(cmd); err != nil {
				pkglog.L().Warn().Err(err).Msg("position sync broadcast failed")
			}
		}
	}
}
