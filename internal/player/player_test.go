package player

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/playlist"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/source"
)

type fakeOutput struct {
	mu       sync.Mutex
	loaded   string
	seeks    []float64
	pauseErr error
}

func (o *fakeOutput) Load(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loaded = url
	return nil
}

func (o *fakeOutput) Play() error { return nil }

func (o *fakeOutput) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pauseErr
}

func (o *fakeOutput) Seek(position float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seeks = append(o.seeks, position)
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testTrack() domain.Track {
	return domain.Track{
		ID:     "t1",
		Title:  "Night Drive",
		Artist: "Roadline",
		Source: domain.SourceLocal,
		URL:    "https://cdn.example/night-drive.mp3",
	}
}

func newTestDeck(clock *fakeClock) (*Deck, *fakeOutput, *Bus) {
	out := &fakeOutput{}
	bus := NewBus()
	deck := NewDeck(out, source.NewChain(source.StreamSource{}), bus)
	deck.now = clock.now
	return deck, out, bus
}

func newTestFollower(clock *fakeClock, selfID string) (*Follower, *Deck, *fakeOutput, *Bus) {
	deck, out, bus := newTestDeck(clock)
	f := NewFollower(deck, bus, selfID, 2.0)
	f.now = clock.now
	return f, deck, out, bus
}

func loadTrack(t *testing.T, deck *Deck) {
	t.Helper()
	if err := deck.LoadTrack(context.Background(), testTrack()); err != nil {
		t.Fatalf("LoadTrack() error = %v", err)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestDeck_PositionAdvancesWhilePlaying(t *testing.T) {
	clock := newFakeClock()
	deck, _, _ := newTestDeck(clock)
	loadTrack(t, deck)

	if err := deck.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	clock.advance(3 * time.Second)
	if got := deck.Position(); !almostEqual(got, 3.0) {
		t.Errorf("Position() = %v, want 3.0", got)
	}

	if err := deck.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	clock.advance(10 * time.Second)
	if got := deck.Position(); !almostEqual(got, 3.0) {
		t.Errorf("Position() after pause = %v, want 3.0", got)
	}
}

func TestDeck_PauseFailureKeepsPlaying(t *testing.T) {
	clock := newFakeClock()
	deck, out, _ := newTestDeck(clock)
	loadTrack(t, deck)

	if err := deck.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	clock.advance(2 * time.Second)

	out.pauseErr = errors.New("output stalled")
	if err := deck.Pause(); err == nil {
		t.Fatal("Pause() should surface the output error")
	}
	if !deck.IsPlaying() {
		t.Error("deck must not report paused when the output refused to pause")
	}
	clock.advance(time.Second)
	if got := deck.Position(); !almostEqual(got, 3.0) {
		t.Errorf("Position() = %v, want 3.0 with the clock still running", got)
	}
}

func TestDeck_TransportControlsRequireTrack(t *testing.T) {
	clock := newFakeClock()
	deck, _, _ := newTestDeck(clock)

	if err := deck.Play(); err != ErrNoTrack {
		t.Errorf("Play() error = %v, want ErrNoTrack", err)
	}
	if err := deck.Seek(10); err != ErrNoTrack {
		t.Errorf("Seek() error = %v, want ErrNoTrack", err)
	}
}

func TestFollower_PlayCompensatesNetworkDelay(t *testing.T) {
	clock := newFakeClock()
	f, deck, _, _ := newTestFollower(clock, "bob")
	loadTrack(t, deck)

	sent := clock.now().Add(-400 * time.Millisecond)
	cmd := domain.Command{
		Action:    domain.ActionPlay,
		Position:  30.0,
		Timestamp: sent.UnixMilli(),
		Seq:       1,
		Epoch:     1,
		IsPlaying: true,
	}
	if err := f.Apply(context.Background(), cmd); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 30.4) {
		t.Errorf("Position() = %v, want 30.4", got)
	}
	if !deck.IsPlaying() {
		t.Error("deck should be playing")
	}
}

func TestFollower_PauseUsesExactPosition(t *testing.T) {
	clock := newFakeClock()
	f, deck, _, _ := newTestFollower(clock, "bob")
	loadTrack(t, deck)
	if err := deck.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	sent := clock.now().Add(-700 * time.Millisecond)
	cmd := domain.Command{
		Action:    domain.ActionPause,
		Position:  18.5,
		Timestamp: sent.UnixMilli(),
		Seq:       1,
		Epoch:     1,
	}
	if err := f.Apply(context.Background(), cmd); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 18.5) {
		t.Errorf("Position() = %v, want 18.5 with no delay adjustment", got)
	}
	if deck.IsPlaying() {
		t.Error("deck should be paused")
	}
}

func TestFollower_PositionSyncDriftThreshold(t *testing.T) {
	clock := newFakeClock()
	f, deck, out, _ := newTestFollower(clock, "bob")
	loadTrack(t, deck)

	if err := deck.Seek(100.0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	seeksBefore := len(out.seeks)

	// Drift 1.5s, inside the 2.0s threshold: no correction.
	cmd := domain.Command{
		Position:  98.5,
		Timestamp: clock.now().UnixMilli(),
		Seq:       1,
		Epoch:     1,
		IsPlaying: true,
	}
	if err := f.ApplyPositionSync(cmd); err != nil {
		t.Fatalf("ApplyPositionSync() error = %v", err)
	}
	if len(out.seeks) != seeksBefore {
		t.Errorf("drift below threshold triggered a seek")
	}
	if got := deck.Position(); !almostEqual(got, 100.0) {
		t.Errorf("Position() = %v, want unchanged 100.0", got)
	}

	// Drift 3.0s, above threshold: reseek to the remote position.
	cmd = domain.Command{
		Position:  97.0,
		Timestamp: clock.now().UnixMilli(),
		Seq:       2,
		Epoch:     1,
		IsPlaying: true,
	}
	if err := f.ApplyPositionSync(cmd); err != nil {
		t.Fatalf("ApplyPositionSync() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 97.0) {
		t.Errorf("Position() = %v, want corrected 97.0", got)
	}
}

func TestFollower_PositionSyncIgnoresTransitDelay(t *testing.T) {
	clock := newFakeClock()
	f, deck, out, _ := newTestFollower(clock, "bob")
	loadTrack(t, deck)

	if err := deck.Seek(10.0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	seeksBefore := len(out.seeks)

	// Remote 11.8 sent 0.4s ago: drift is 1.8s against the raw position,
	// inside the 2.0s threshold. Adding transit time would push the
	// comparison to 2.2s and trigger a spurious reseek.
	cmd := domain.Command{
		Position:  11.8,
		Timestamp: clock.now().Add(-400 * time.Millisecond).UnixMilli(),
		Seq:       1,
		Epoch:     1,
		IsPlaying: true,
	}
	if err := f.ApplyPositionSync(cmd); err != nil {
		t.Fatalf("ApplyPositionSync() error = %v", err)
	}
	if len(out.seeks) != seeksBefore {
		t.Errorf("sync inside the threshold triggered a seek")
	}

	// A real correction lands on the remote value exactly, no delay added.
	cmd = domain.Command{
		Position:  14.5,
		Timestamp: clock.now().Add(-400 * time.Millisecond).UnixMilli(),
		Seq:       2,
		Epoch:     1,
		IsPlaying: true,
	}
	if err := f.ApplyPositionSync(cmd); err != nil {
		t.Fatalf("ApplyPositionSync() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 14.5) {
		t.Errorf("Position() = %v, want raw remote 14.5", got)
	}
}

func TestFollower_DiscardsStaleSequence(t *testing.T) {
	clock := newFakeClock()
	f, deck, _, _ := newTestFollower(clock, "bob")
	loadTrack(t, deck)

	now := clock.now().UnixMilli()
	if err := f.Apply(context.Background(), domain.Command{
		Action: domain.ActionSeek, Position: 50.0, Timestamp: now, Seq: 5, Epoch: 1,
	}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// A late-arriving earlier command must not move the deck.
	if err := f.Apply(context.Background(), domain.Command{
		Action: domain.ActionSeek, Position: 10.0, Timestamp: now, Seq: 3, Epoch: 1,
	}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 50.0) {
		t.Errorf("Position() = %v, want 50.0 after stale command dropped", got)
	}
}

func TestFollower_NewEpochResetsSequenceFilter(t *testing.T) {
	clock := newFakeClock()
	f, deck, _, _ := newTestFollower(clock, "bob")
	loadTrack(t, deck)

	now := clock.now().UnixMilli()
	if err := f.Apply(context.Background(), domain.Command{
		Action: domain.ActionSeek, Position: 50.0, Timestamp: now, Seq: 9, Epoch: 1,
	}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// New controller generation starts its sequence over.
	if err := f.Apply(context.Background(), domain.Command{
		Action: domain.ActionSeek, Position: 20.0, Timestamp: now, Seq: 1, Epoch: 2,
	}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 20.0) {
		t.Errorf("Position() = %v, want 20.0 after epoch change", got)
	}

	// Old epoch commands are dead regardless of sequence.
	if err := f.Apply(context.Background(), domain.Command{
		Action: domain.ActionSeek, Position: 80.0, Timestamp: now, Seq: 99, Epoch: 1,
	}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 20.0) {
		t.Errorf("Position() = %v, want 20.0 after old-epoch command dropped", got)
	}
}

func TestFollower_ControllerIgnoresInboundCommands(t *testing.T) {
	clock := newFakeClock()
	f, deck, _, _ := newTestFollower(clock, "alice")
	loadTrack(t, deck)
	f.SetController("alice", 1)

	if err := f.Apply(context.Background(), domain.Command{
		Action: domain.ActionSeek, Position: 70.0, Timestamp: clock.now().UnixMilli(), Seq: 1, Epoch: 1,
	}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 0.0) {
		t.Errorf("controller's deck moved to %v on an inbound command", got)
	}
}

func TestFollower_SnapshotAdvancesElapsedPlayingTime(t *testing.T) {
	clock := newFakeClock()
	f, deck, _, _ := newTestFollower(clock, "bob")

	track := testTrack()
	anchored := clock.now().Add(-3 * time.Second)
	snap := &domain.SessionSnapshot{
		SessionID:       "s1",
		CurrentTrack:    &track,
		ControllerID:    "alice",
		ControllerEpoch: 2,
		LastSeq:         7,
		IsPlaying:       true,
		Position:        42.0,
		TrackStartedAt:  anchored.UnixMilli(),
		Timestamp:       clock.now().UnixMilli(),
	}
	if err := f.ApplySnapshot(context.Background(), snap); err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 45.0) {
		t.Errorf("Position() = %v, want 45.0 (42.0 + 3s elapsed)", got)
	}
	if !deck.IsPlaying() {
		t.Error("deck should resume playing from snapshot")
	}

	// The snapshot seeds the staleness filter too.
	if err := f.Apply(context.Background(), domain.Command{
		Action: domain.ActionSeek, Position: 5.0, Timestamp: clock.now().UnixMilli(), Seq: 7, Epoch: 2,
	}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := deck.Position(); almostEqual(got, 5.0) {
		t.Error("command at snapshot sequence should have been dropped")
	}
}

func TestFollower_SnapshotPausedNoCorrection(t *testing.T) {
	clock := newFakeClock()
	f, deck, _, _ := newTestFollower(clock, "bob")

	track := testTrack()
	snap := &domain.SessionSnapshot{
		SessionID:      "s1",
		CurrentTrack:   &track,
		ControllerID:   "alice",
		IsPlaying:      false,
		Position:       42.0,
		TrackStartedAt: clock.now().Add(-time.Minute).UnixMilli(),
		Timestamp:      clock.now().UnixMilli(),
	}
	if err := f.ApplySnapshot(context.Background(), snap); err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 42.0) {
		t.Errorf("Position() = %v, want exact 42.0 for paused snapshot", got)
	}
	if deck.IsPlaying() {
		t.Error("deck should stay paused")
	}
}

func TestFollower_ControllerRejoinSkipsSnapshotCorrection(t *testing.T) {
	clock := newFakeClock()
	f, deck, _, _ := newTestFollower(clock, "alice")
	loadTrack(t, deck)
	if err := deck.Seek(60.0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}

	track := testTrack()
	snap := &domain.SessionSnapshot{
		SessionID:      "s1",
		CurrentTrack:   &track,
		ControllerID:   "alice",
		IsPlaying:      true,
		Position:       42.0,
		TrackStartedAt: clock.now().Add(-3 * time.Second).UnixMilli(),
		Timestamp:      clock.now().UnixMilli(),
	}
	if err := f.ApplySnapshot(context.Background(), snap); err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 60.0) {
		t.Errorf("Position() = %v, want controller's own 60.0 untouched", got)
	}
}

type recordingTransport struct {
	mu       sync.Mutex
	commands []domain.Command
	syncs    []domain.Command
}

func (r *recordingTransport) SendCommand(cmd domain.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return nil
}

func (r *recordingTransport) SendPositionSync(cmd domain.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncs = append(r.syncs, cmd)
	return nil
}

func TestController_StampsMonotonicSequence(t *testing.T) {
	clock := newFakeClock()
	deck, _, _ := newTestDeck(clock)
	loadTrack(t, deck)

	transport := &recordingTransport{}
	c := NewController(deck, transport, 3)
	c.now = clock.now

	if err := c.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if err := c.Seek(10.0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	if len(transport.commands) != 3 {
		t.Fatalf("sent %d commands, want 3", len(transport.commands))
	}
	for i, cmd := range transport.commands {
		if cmd.Seq != int64(i+1) {
			t.Errorf("command %d has seq %d, want %d", i, cmd.Seq, i+1)
		}
		if cmd.Epoch != 3 {
			t.Errorf("command %d has epoch %d, want 3", i, cmd.Epoch)
		}
		if cmd.Timestamp == 0 {
			t.Errorf("command %d missing timestamp", i)
		}
	}
}

func TestController_SetEpochResetsSequence(t *testing.T) {
	clock := newFakeClock()
	deck, _, _ := newTestDeck(clock)
	loadTrack(t, deck)

	transport := &recordingTransport{}
	c := NewController(deck, transport, 1)
	c.now = clock.now

	if err := c.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	c.SetEpoch(2)
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	last := transport.commands[len(transport.commands)-1]
	if last.Epoch != 2 || last.Seq != 1 {
		t.Errorf("after epoch change got (epoch=%d, seq=%d), want (2, 1)", last.Epoch, last.Seq)
	}
}

func TestController_ChangeTrackCarriesTrack(t *testing.T) {
	clock := newFakeClock()
	deck, _, _ := newTestDeck(clock)

	transport := &recordingTransport{}
	c := NewController(deck, transport, 1)
	c.now = clock.now

	track := testTrack()
	if err := c.ChangeTrack(context.Background(), track, true); err != nil {
		t.Fatalf("ChangeTrack() error = %v", err)
	}
	if !deck.IsPlaying() {
		t.Error("autoplay change should start local playback")
	}

	cmd := transport.commands[0]
	if cmd.Action != domain.ActionChangeTrack || cmd.Track == nil || cmd.Track.ID != track.ID {
		t.Errorf("broadcast command = %+v, want change-track with track attached", cmd)
	}
	if !cmd.AutoPlay {
		t.Error("autoplay flag lost in broadcast")
	}
}

func testPlaylist() domain.Playlist {
	return domain.Playlist{
		{ID: "t1", Title: "Night Drive", Artist: "Roadline", Source: domain.SourceLocal, URL: "https://cdn.example/night-drive.mp3"},
		{ID: "t2", Title: "Coastline", Artist: "Roadline", Source: domain.SourceLocal, URL: "https://cdn.example/coastline.mp3"},
		{ID: "t3", Title: "Overpass", Artist: "Roadline", Source: domain.SourceLocal, URL: "https://cdn.example/overpass.mp3"},
	}
}

func TestController_NextAdvancesAndBroadcasts(t *testing.T) {
	clock := newFakeClock()
	deck, out, _ := newTestDeck(clock)

	coord := playlist.New(3.0)
	coord.Reconcile(testPlaylist())
	coord.SetCurrent("t1")

	transport := &recordingTransport{}
	c := NewController(deck, transport, 1)
	c.now = clock.now

	if err := c.Next(context.Background(), coord); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if out.loaded != "https://cdn.example/coastline.mp3" {
		t.Errorf("loaded %q, want the second track", out.loaded)
	}
	if !deck.IsPlaying() {
		t.Error("next should start playback")
	}

	cmd := transport.commands[0]
	if cmd.Action != domain.ActionNext || cmd.Track == nil || cmd.Track.ID != "t2" {
		t.Errorf("broadcast command = %+v, want next with t2 attached", cmd)
	}
	if !cmd.AutoPlay {
		t.Error("next broadcast should set autoplay")
	}
}

func TestController_PreviousHonorsGraceWindow(t *testing.T) {
	clock := newFakeClock()
	deck, out, _ := newTestDeck(clock)

	coord := playlist.New(3.0)
	coord.Reconcile(testPlaylist())
	coord.SetCurrent("t2")

	tracks := testPlaylist()
	if err := deck.LoadTrack(context.Background(), tracks[1]); err != nil {
		t.Fatalf("LoadTrack() error = %v", err)
	}

	transport := &recordingTransport{}
	c := NewController(deck, transport, 1)
	c.now = clock.now

	// Early in the track: previous steps back an index.
	if err := deck.Seek(1.5); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if err := c.Previous(context.Background(), coord); err != nil {
		t.Fatalf("Previous() error = %v", err)
	}
	if out.loaded != "https://cdn.example/night-drive.mp3" {
		t.Errorf("loaded %q, want the first track", out.loaded)
	}
	if cmd := transport.commands[0]; cmd.Action != domain.ActionPrevious || cmd.Track == nil || cmd.Track.ID != "t1" {
		t.Errorf("broadcast command = %+v, want previous with t1 attached", cmd)
	}

	// Deep into the track: previous restarts it instead.
	if err := deck.Seek(5.0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if err := c.Previous(context.Background(), coord); err != nil {
		t.Fatalf("Previous() error = %v", err)
	}
	if got := deck.Position(); !almostEqual(got, 0.0) {
		t.Errorf("Position() = %v, want restart at 0", got)
	}
	if cmd := transport.commands[1]; cmd.Track == nil || cmd.Track.ID != "t1" {
		t.Errorf("restart broadcast = %+v, want current track t1", cmd)
	}
}

func TestFollower_PlayLoadsAttachedTrack(t *testing.T) {
	clock := newFakeClock()
	f, deck, out, _ := newTestFollower(clock, "bob")

	track := testTrack()
	cmd := domain.Command{
		Action:    domain.ActionPlay,
		Track:     &track,
		Position:  12.0,
		Timestamp: clock.now().UnixMilli(),
		Seq:       1,
		Epoch:     1,
		IsPlaying: true,
	}
	if err := f.Apply(context.Background(), cmd); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if out.loaded != track.URL {
		t.Errorf("loaded %q, want track attached to play command", out.loaded)
	}
	if got := deck.Position(); !almostEqual(got, 12.0) {
		t.Errorf("Position() = %v, want 12.0", got)
	}
}

func TestDeck_TrackEndedStopsAndPublishes(t *testing.T) {
	clock := newFakeClock()
	deck, _, bus := newTestDeck(clock)
	loadTrack(t, deck)

	var ended int
	bus.Subscribe(func(ev Event) {
		if ev.Type == EventTrackEnded {
			ended++
		}
	})

	if err := deck.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	clock.advance(4 * time.Second)
	deck.TrackEnded()

	if deck.IsPlaying() {
		t.Error("deck should stop at end of track")
	}
	if ended != 1 {
		t.Errorf("got %d track-ended events, want 1", ended)
	}
	if got := deck.Position(); !almostEqual(got, 4.0) {
		t.Errorf("Position() = %v, want frozen at 4.0", got)
	}
}

func TestBus_SubscribeAndCancel(t *testing.T) {
	bus := NewBus()

	var got []EventType
	cancel := bus.Subscribe(func(ev Event) { got = append(got, ev.Type) })
	bus.Subscribe(func(Event) {}) // second subscriber must not interfere

	bus.Publish(Event{Type: EventTrackLoaded})
	cancel()
	bus.Publish(Event{Type: EventStateChanged})

	if len(got) != 1 || got[0] != EventTrackLoaded {
		t.Errorf("subscriber saw %v, want only track-loaded before cancel", got)
	}
}

func TestDeck_FallbackPublishesEvent(t *testing.T) {
	clock := newFakeClock()
	out := &fakeOutput{}
	bus := NewBus()
	chain := source.NewChain(source.StreamSource{}, source.PreviewSource{})
	deck := NewDeck(out, chain, bus)
	deck.now = clock.now

	var fallbacks int
	bus.Subscribe(func(ev Event) {
		if ev.Type == EventSourceFallback {
			fallbacks++
		}
	})

	track := domain.Track{
		ID:         "t2",
		Title:      "Coastline",
		Artist:     "Roadline",
		Source:     domain.SourceSpotify,
		PreviewURL: "https://cdn.example/coastline-preview.mp3",
	}
	if err := deck.LoadTrack(context.Background(), track); err != nil {
		t.Fatalf("LoadTrack() error = %v", err)
	}
	if fallbacks != 1 {
		t.Errorf("got %d fallback events, want 1", fallbacks)
	}
	if out.loaded != track.PreviewURL {
		t.Errorf("loaded %q, want preview URL", out.loaded)
	}
}
