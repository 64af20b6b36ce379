package registry

import (
	"context"
	"testing"
	"time"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
)

func newTestRegistry() *Registry {
	return New(NewMemoryStore(), 3.0)
}

func TestTakeControl_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	// Both users observed no controller and race for the role.
	epoch, err := r.TakeControl(ctx, "s1", "alice", "")
	if err != nil {
		t.Fatalf("first take should succeed, got %v", err)
	}
	if epoch != 1 {
		t.Errorf("expected epoch 1, got %d", epoch)
	}

	_, err = r.TakeControl(ctx, "s1", "bob", "")
	if err != ErrControlTaken {
		t.Errorf("expected ErrControlTaken, got %v", err)
	}
	if got := r.ControllerID("s1"); got != "alice" {
		t.Errorf("expected alice to keep control, got %q", got)
	}

	// Bob retries with the controller he now observes.
	epoch, err = r.TakeControl(ctx, "s1", "bob", "alice")
	if err != nil {
		t.Fatalf("take with correct expectation should succeed, got %v", err)
	}
	if epoch != 2 {
		t.Errorf("expected epoch 2, got %d", epoch)
	}
}

func TestTakeControl_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	e1, _ := r.TakeControl(ctx, "s1", "alice", "")
	e2, err := r.TakeControl(ctx, "s1", "alice", "stale-view")
	if err != nil {
		t.Fatalf("re-taking own control should be a no-op, got %v", err)
	}
	if e1 != e2 {
		t.Errorf("epoch should not change on idempotent take: %d != %d", e1, e2)
	}
}

func TestReleaseControl_OnlyHolder(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	r.TakeControl(ctx, "s1", "alice", "")

	if _, changed := r.ReleaseControl(ctx, "s1", "bob"); changed {
		t.Error("non-holder release should be a no-op")
	}
	if got := r.ControllerID("s1"); got != "alice" {
		t.Errorf("controller should still be alice, got %q", got)
	}

	if _, changed := r.ReleaseControl(ctx, "s1", "alice"); !changed {
		t.Error("holder release should clear the controller")
	}
	if got := r.ControllerID("s1"); got != "" {
		t.Errorf("controller should be cleared, got %q", got)
	}
}

func TestApplyCommand_RequiresController(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	r.JoinMusic(ctx, "s1", "g1", "alice")

	cmd := domain.Command{Action: domain.ActionPlay, Position: 10, Seq: 1, Timestamp: time.Now().UnixMilli()}
	if _, err := r.ApplyCommand(ctx, "s1", "alice", cmd); err != ErrNotController {
		t.Errorf("expected ErrNotController, got %v", err)
	}
}

func TestApplyCommand_DiscardsStaleSequence(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	r.TakeControl(ctx, "s1", "alice", "")

	now := time.Now().UnixMilli()
	first := domain.Command{Action: domain.ActionPlay, Position: 10, Seq: 5, Timestamp: now}
	if _, err := r.ApplyCommand(ctx, "s1", "alice", first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stale := domain.Command{Action: domain.ActionPause, Position: 11, Seq: 5, Timestamp: now}
	if _, err := r.ApplyCommand(ctx, "s1", "alice", stale); err != ErrStaleCommand {
		t.Errorf("expected ErrStaleCommand for repeated seq, got %v", err)
	}

	older := domain.Command{Action: domain.ActionPause, Position: 11, Seq: 3, Timestamp: now}
	if _, err := r.ApplyCommand(ctx, "s1", "alice", older); err != ErrStaleCommand {
		t.Errorf("expected ErrStaleCommand for older seq, got %v", err)
	}
}

func TestApplyCommand_StampsEpoch(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	epoch, _ := r.TakeControl(ctx, "s1", "alice", "")

	cmd := domain.Command{Action: domain.ActionPlay, Position: 30, Seq: 1, Timestamp: time.Now().UnixMilli()}
	out, err := r.ApplyCommand(ctx, "s1", "alice", cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Epoch != epoch {
		t.Errorf("expected epoch %d on relayed command, got %d", epoch, out.Epoch)
	}

	snap, err := r.Snapshot("s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.IsPlaying || snap.Position != 30 {
		t.Errorf("expected playing at 30s, got playing=%v position=%v", snap.IsPlaying, snap.Position)
	}
}

func TestDisconnect_ClearsController(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	r.JoinAudio(ctx, "s1", "alice", "conn-1", "Alice")
	r.TakeControl(ctx, "s1", "alice", "")

	_, cleared, epoch := r.Disconnect(ctx, "s1", "conn-1", "alice")
	if !cleared {
		t.Fatal("controller should be cleared on disconnect")
	}
	if epoch != 2 {
		t.Errorf("expected epoch bump to 2, got %d", epoch)
	}
	if got := r.ControllerID("s1"); got != "" {
		t.Errorf("controller should be empty after disconnect, got %q", got)
	}
}

func TestDisconnect_NonControllerKeepsController(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	r.JoinAudio(ctx, "s1", "alice", "conn-1", "Alice")
	r.JoinAudio(ctx, "s1", "bob", "conn-2", "Bob")
	r.TakeControl(ctx, "s1", "alice", "")

	_, cleared, _ := r.Disconnect(ctx, "s1", "conn-2", "bob")
	if cleared {
		t.Error("disconnecting a follower must not clear the controller")
	}
	if got := r.ControllerID("s1"); got != "alice" {
		t.Errorf("expected alice, got %q", got)
	}
}

func TestAddTrack_DuplicateByURL(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	track := domain.Track{ID: "t1", Title: "X", Artist: "Y", URL: "a.mp3", Source: domain.SourceLocal}
	if _, err := r.AddTrack(ctx, "s1", track); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := domain.Track{ID: "t2", Title: "Other", Artist: "Z", URL: "a.mp3", Source: domain.SourceLocal}
	if _, err := r.AddTrack(ctx, "s1", dup); err != ErrDuplicateTrack {
		t.Errorf("expected ErrDuplicateTrack, got %v", err)
	}

	snap, _ := r.Snapshot("s1")
	if len(snap.Playlist) != 1 {
		t.Errorf("expected playlist length 1, got %d", len(snap.Playlist))
	}
}

func TestAddTrack_DuplicateByTitleArtist(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	r.AddTrack(ctx, "s1", domain.Track{ID: "t1", Title: "X", Artist: "Y", URL: "a.mp3"})
	_, err := r.AddTrack(ctx, "s1", domain.Track{ID: "t2", Title: "X", Artist: "Y", URL: "b.mp3"})
	if err != ErrDuplicateTrack {
		t.Errorf("expected ErrDuplicateTrack for same title/artist, got %v", err)
	}

	snap, _ := r.Snapshot("s1")
	if len(snap.Playlist) != 1 {
		t.Errorf("expected playlist length 1, got %d", len(snap.Playlist))
	}
}

func TestClearPlaylist_StopsPlayback(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	r.TakeControl(ctx, "s1", "alice", "")
	r.AddTrack(ctx, "s1", domain.Track{ID: "t1", Title: "X", Artist: "Y", URL: "a.mp3"})

	track := domain.Track{ID: "t1", Title: "X", Artist: "Y", URL: "a.mp3"}
	cmd := domain.Command{Action: domain.ActionChangeTrack, Track: &track, AutoPlay: true, Seq: 1, Timestamp: time.Now().UnixMilli()}
	if _, err := r.ApplyCommand(ctx, "s1", "alice", cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.ClearPlaylist(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ := r.Snapshot("s1")
	if len(snap.Playlist) != 0 || snap.CurrentTrack != nil || snap.IsPlaying {
		t.Error("clear should empty the playlist and stop playback")
	}
}

func TestAdvance_NextWrapsAround(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	r.TakeControl(ctx, "s1", "alice", "")
	r.AddTrack(ctx, "s1", domain.Track{ID: "t1", Title: "A", Artist: "X", URL: "a.mp3"})
	r.AddTrack(ctx, "s1", domain.Track{ID: "t2", Title: "B", Artist: "X", URL: "b.mp3"})

	last := domain.Track{ID: "t2", Title: "B", Artist: "X", URL: "b.mp3"}
	r.ApplyCommand(ctx, "s1", "alice", domain.Command{
		Action: domain.ActionChangeTrack, Track: &last, AutoPlay: true, Seq: 1, Timestamp: time.Now().UnixMilli(),
	})

	out, err := r.ApplyCommand(ctx, "s1", "alice", domain.Command{
		Action: domain.ActionNext, Seq: 2, Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Track == nil || out.Track.ID != "t1" {
		t.Errorf("next from last track should wrap to first, got %+v", out.Track)
	}
}

func TestApplyCommand_PlayRejectsUnplayableTrack(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	r.TakeControl(ctx, "s1", "alice", "")

	bad := domain.Track{ID: "t1", Title: "A", Artist: "X"}
	_, err := r.ApplyCommand(ctx, "s1", "alice", domain.Command{
		Action: domain.ActionPlay, Track: &bad, Seq: 1, Timestamp: time.Now().UnixMilli(),
	})
	if err != ErrNotPlayable {
		t.Fatalf("expected ErrNotPlayable, got %v", err)
	}

	snap, _ := r.Snapshot("s1")
	if snap.IsPlaying || snap.CurrentTrack != nil {
		t.Errorf("rejected play should leave state untouched, got playing=%v track=%v", snap.IsPlaying, snap.CurrentTrack)
	}
}

func TestAdvance_PreviousGraceWindow(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	r.TakeControl(ctx, "s1", "alice", "")
	r.AddTrack(ctx, "s1", domain.Track{ID: "t1", Title: "A", Artist: "X", URL: "a.mp3"})
	r.AddTrack(ctx, "s1", domain.Track{ID: "t2", Title: "B", Artist: "X", URL: "b.mp3"})

	second := domain.Track{ID: "t2", Title: "B", Artist: "X", URL: "b.mp3"}
	r.ApplyCommand(ctx, "s1", "alice", domain.Command{
		Action: domain.ActionChangeTrack, Track: &second, AutoPlay: true, Seq: 1, Timestamp: time.Now().UnixMilli(),
	})

	// Early in the track: previous moves back an index.
	out, err := r.ApplyCommand(ctx, "s1", "alice", domain.Command{
		Action: domain.ActionPrevious, Position: 1.5, Seq: 2, Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Track == nil || out.Track.ID != "t1" {
		t.Errorf("previous within grace window should move to prior track, got %+v", out.Track)
	}

	// Deep into the track: previous restarts it.
	out, err = r.ApplyCommand(ctx, "s1", "alice", domain.Command{
		Action: domain.ActionPrevious, Position: 5.0, Seq: 3, Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Track == nil || out.Track.ID != "t1" {
		t.Errorf("previous past grace window should restart current track, got %+v", out.Track)
	}
	snap, _ := r.Snapshot("s1")
	if snap.Position != 0 {
		t.Errorf("restart should reset position to 0, got %v", snap.Position)
	}
}

func TestSnapshot_RebuiltFromStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r1 := New(store, 3.0)
	r1.TakeControl(ctx, "s1", "alice", "")
	r1.AddTrack(ctx, "s1", domain.Track{ID: "t1", Title: "A", Artist: "X", URL: "a.mp3"})

	// A fresh authority rebuilds the session from the stored snapshot.
	r2 := New(store, 3.0)
	snap := r2.JoinMusic(ctx, "s1", "", "bob")
	if len(snap.Playlist) != 1 {
		t.Errorf("expected rebuilt playlist of length 1, got %d", len(snap.Playlist))
	}
	if snap.ControllerID != "alice" {
		t.Errorf("expected controller alice after rebuild, got %q", snap.ControllerID)
	}
}

func TestSetPlaylist_DeduplicatesReceivedList(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	list := domain.Playlist{
		{ID: "t1", Title: "X", Artist: "Y", URL: "a.mp3"},
		{ID: "t2", Title: "X", Artist: "Y", URL: "b.mp3"}, // duplicate by title/artist
		{ID: "t3", Title: "Z", Artist: "W", URL: "a.mp3"}, // duplicate by URL
	}
	got := r.SetPlaylist(ctx, "s1", list)
	if len(got) != 1 {
		t.Errorf("expected deduplicated playlist of length 1, got %d", len(got))
	}
}
