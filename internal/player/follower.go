package player

import (
	"context"
	"sync"
	"time"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
)

// Follower is the receive side of the playback engine. It applies
// controller commands with network latency compensation and drops
// anything stale by epoch or sequence number.
type Follower struct {
	deck           *Deck
	bus            *Bus
	driftThreshold float64
	now            func() time.Time

	mu           sync.Mutex
	selfID       string
	controllerID string
	epoch        int64
	lastSeq      int64
}

// NewFollower creates a follower for the given local user.
func NewFollower(deck *Deck, bus *Bus, selfID string, driftThreshold float64) *Follower {
	return &Follower{
		deck:           deck,
		bus:            bus,
		driftThreshold: driftThreshold,
		now:            time.Now,
		selfID:         selfID,
	}
}

// ControllerID returns the current controller's user id.
func (f *Follower) ControllerID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.controllerID
}

// IsController reports whether the local user holds control.
func (f *Follower) IsController() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.controllerID != "" && f.controllerID == f.selfID
}

// SetController records a controller change. A new epoch resets the
// sequence filter.
func (f *Follower) SetController(controllerID string, epoch int64) {
	f.mu.Lock()
	changed := f.controllerID != controllerID || f.epoch != epoch
	f.controllerID = controllerID
	if epoch > f.epoch {
		f.epoch = epoch
		f.lastSeq = 0
	}
	f.mu.Unlock()

	if changed {
		f.bus.Publish(Event{Type: EventControllerChanged, Controller: controllerID})
	}
}

// accept runs the staleness filter and advances it on success. The local
// controller ignores inbound commands entirely; its own deck is the truth.
func (f *Follower) accept(cmd domain.Command) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.controllerID != "" && f.controllerID == f.selfID {
		return false
	}
	if cmd.Epoch < f.epoch {
		return false
	}
	if cmd.Epoch > f.epoch {
		f.epoch = cmd.Epoch
		f.lastSeq = 0
	}
	if cmd.Seq <= f.lastSeq {
		return false
	}
	f.lastSeq = cmd.Seq
	return true
}

// delaySince returns the estimated one-way network delay in seconds.
// Clock skew can make it negative; that clamps to zero.
func (f *Follower) delaySince(cmd domain.Command) float64 {
	delay := f.now().Sub(cmd.SentAt()).Seconds()
	if delay < 0 {
		return 0
	}
	return delay
}

// Apply executes a controller command locally. Play-type actions advance
// the target position by the measured network delay; pause freezes at the
// exact commanded position.
func (f *Follower) Apply(ctx context.Context, cmd domain.Command) error {
	if !f.accept(cmd) {
		pkglog.L().Debug().
			Str(pkglog.FieldEvent, string(cmd.Action)).
			Int64("seq", cmd.Seq).
			Int64("epoch", cmd.Epoch).
			Msg("dropping stale playback command")
		return nil
	}

	switch cmd.Action {
	case domain.ActionPlay:
		if cmd.Track != nil {
			cur := f.deck.CurrentTrack()
			if cur == nil || cur.ID != cmd.Track.ID {
				if err := f.deck.LoadTrack(ctx, *cmd.Track); err != nil {
					return err
				}
			}
		}
		if err := f.deck.Seek(cmd.Position + f.delaySince(cmd)); err != nil {
			return err
		}
		return f.deck.Play()

	case domain.ActionPause:
		if err := f.deck.Seek(cmd.Position); err != nil {
			return err
		}
		return f.deck.Pause()

	case domain.ActionSeek:
		target := cmd.Position
		if cmd.IsPlaying {
			target += f.delaySince(cmd)
		}
		if err := f.deck.Seek(target); err != nil {
			return err
		}
		if cmd.IsPlaying {
			return f.deck.Play()
		}
		return f.deck.Pause()

	case domain.ActionNext, domain.ActionPrevious, domain.ActionChangeTrack:
		if cmd.Track == nil {
			return nil
		}
		if err := f.deck.LoadTrack(ctx, *cmd.Track); err != nil {
			return err
		}
		if cmd.AutoPlay || cmd.IsPlaying {
			if err := f.deck.Seek(cmd.Position + f.delaySince(cmd)); err != nil {
				return err
			}
			return f.deck.Play()
		}
		if cmd.Position > 0 {
			return f.deck.Seek(cmd.Position)
		}
		return nil

	default:
		pkglog.L().Warn().Str(pkglog.FieldEvent, string(cmd.Action)).Msg("unknown playback action")
		return nil
	}
}

// ApplyPositionSync compares the remote position against the local clock
// and reseeks only when drift exceeds the threshold. Unlike transport
// commands, the periodic sync carries no delay adjustment; the drift
// threshold already absorbs transit time. Small drift is left alone;
// constant micro-seeking sounds worse than being half a second off.
func (f *Follower) ApplyPositionSync(cmd domain.Command) error {
	if !f.accept(cmd) {
		return nil
	}

	remote := cmd.Position
	local := f.deck.Position()
	drift := local - remote
	if drift < 0 {
		drift = -drift
	}
	if drift <= f.driftThreshold {
		return nil
	}

	pkglog.L().Debug().
		Float64("local", local).
		Float64("remote", remote).
		Float64("drift", drift).
		Msg("drift above threshold, resyncing")

	if err := f.deck.Seek(remote); err != nil {
		return err
	}
	if cmd.IsPlaying && !f.deck.IsPlaying() {
		if err := f.deck.Play(); err != nil {
			return err
		}
	}
	f.bus.Publish(Event{Type: EventResynced, Position: remote, IsPlaying: cmd.IsPlaying})
	return nil
}

// ApplySnapshot seeds local state from an authoritative session snapshot,
// advancing the position by the time elapsed since it was anchored. The
// controller skips the correction on rejoin: its own deck kept playing and
// its clock outranks a snapshot of its own past.
func (f *Follower) ApplySnapshot(ctx context.Context, snap *domain.SessionSnapshot) error {
	f.mu.Lock()
	f.controllerID = snap.ControllerID
	f.epoch = snap.ControllerEpoch
	f.lastSeq = snap.LastSeq
	self := f.selfID
	f.mu.Unlock()

	if snap.ControllerID != "" && snap.ControllerID == self {
		return nil
	}
	if snap.CurrentTrack == nil {
		return nil
	}

	if err := f.deck.LoadTrack(ctx, *snap.CurrentTrack); err != nil {
		return err
	}

	position := snap.Position
	if snap.IsPlaying && snap.TrackStartedAt > 0 {
		elapsed := f.now().Sub(time.UnixMilli(snap.TrackStartedAt)).Seconds()
		if elapsed > 0 {
			position += elapsed
		}
	}
	if err := f.deck.Seek(position); err != nil {
		return err
	}
	if snap.IsPlaying {
		return f.deck.Play()
	}
	return nil
}
