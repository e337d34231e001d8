package player

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/slumberfm/slumber/internal/app/queue"
	"github.com/slumberfm/slumber/internal/domain/track"
)

// Element is the bound media resource. The coordinator treats it as a black
// box: no assumptions about codec or transport. Implementations deliver
// callbacks from their own goroutines, never from inside a coordinator call.
type Element interface {
	Load(locator string) error
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(level float64)
	OnEnded(fn func())
	OnPosition(fn func(seconds float64))
	OnDuration(fn func(seconds float64))
	OnSeeked(fn func())
	Close() error
}

// Oracle answers entitlement questions. Checks are synchronous and local.
type Oracle interface {
	CanPlay(trackID string) bool
	CanAutoplay() bool
	CanSkipManually() bool
	ExplainRestriction(trackID string) string
}

// Catalog is the slice of the track catalog the coordinator needs: the
// same-category fallback pick. It does not otherwise browse the catalog.
type Catalog interface {
	TracksInCategory(categoryID string) []track.Track
}

// Prompter receives user-facing upgrade prompts. May be nil.
type Prompter interface {
	Prompt(reason string)
}

// Messages holds the prompt texts for entitlement denials.
type Messages struct {
	SkipRestricted     string
	AutoplayRestricted string
	PlayRestricted     string
}

// Config holds coordinator configuration.
type Config struct {
	HistoryCapacity int     // History stack bound, default 50
	InitialVolume   float64 // Applied to the element at construction
	Messages        Messages
}

// PlaybackState is the snapshot the UI renders from.
type PlaybackState struct {
	Track           *track.Track
	State           State
	IsPlaying       bool // User intent; stays true while Blocked
	Position        float64
	Duration        float64
	Volume          float64
	Queue           []track.Track
	QueueIndex      int
	LoopMode        queue.LoopMode
	Shuffled        bool
	SingleTrackMode bool
	HasPausedQueue  bool
	CanNext         bool
	CanPrevious     bool
}

// Coordinator owns the single source of truth for what is playing. All
// state transitions are serialized by one mutex: user intents and media
// element callbacks alike, so no two of them interleave mid-mutation.
// The current track is always derived from the switcher, never stored.
type Coordinator struct {
	mu sync.Mutex

	store    *queue.Store
	switcher *Switcher
	history  *queue.History

	element Element
	oracle  Oracle
	catalog Catalog
	prompt  Prompter
	rng     *rand.Rand

	state    State
	playing  bool // User intent
	position float64
	duration float64
	volume   float64

	boundTrackID     string // Track whose locator is loaded in the element
	seeking          bool   // Suppresses position callbacks mid-gesture
	autoplayNotified bool   // At most one autoplay prompt per track

	eventCh chan Event
	closed  bool
	cfg     Config
}

// New creates a coordinator bound to the given element. The random source
// feeds shuffle and the same-category fallback pick; pass a seeded one in
// tests. A nil source falls back to a time-seeded one.
func New(element Element, oracle Oracle, catalog Catalog, prompt Prompter, rng *rand.Rand, cfg Config) *Coordinator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.InitialVolume <= 0 || cfg.InitialVolume > 1 {
		cfg.InitialVolume = 0.7
	}
	store := queue.NewStore(rng)
	c := &Coordinator{
		store:    store,
		switcher: NewSwitcher(store),
		history:  queue.NewHistory(cfg.HistoryCapacity),
		element:  element,
		oracle:   oracle,
		catalog:  catalog,
		prompt:   prompt,
		rng:      rng,
		state:    StateIdle,
		volume:   cfg.InitialVolume,
		eventCh:  make(chan Event, 16),
		cfg:      cfg,
	}
	element.SetVolume(c.volume)
	element.OnEnded(c.onTrackEnded)
	element.OnPosition(c.onPosition)
	element.OnDuration(c.onDuration)
	element.OnSeeked(c.onSeeked)
	return c
}

// Events returns the event channel.
func (c *Coordinator) Events() <-chan Event {
	return c.eventCh
}

// State returns a snapshot of the playback state.
func (c *Coordinator) State() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := PlaybackState{
		State:           c.state,
		IsPlaying:       c.playing,
		Position:        c.position,
		Duration:        c.duration,
		Volume:          c.volume,
		Queue:           c.store.Entries(),
		QueueIndex:      c.store.Cursor(),
		LoopMode:        c.store.LoopMode(),
		Shuffled:        c.store.Shuffled(),
		SingleTrackMode: c.switcher.SingleTrackMode(),
		HasPausedQueue:  c.switcher.HasPausedQueue(),
	}
	if cur, ok := c.switcher.Current(); ok {
		t := cur
		snap.Track = &t
	}
	if c.oracle.CanSkipManually() {
		_, nextOK := c.store.PeekNext()
		snap.CanNext = (c.switcher.QueueActive() && nextOK) ||
			c.switcher.HasPausedQueue() || c.switcher.SingleTrackMode()
		_, prevOK := c.store.PeekPrevious()
		snap.CanPrevious = !c.history.IsEmpty() || (c.switcher.QueueActive() && prevOK)
	}
	return snap
}

// PlayTrack makes t the current track as an ad-hoc play, interrupting any
// active queue. Idempotent when t is already current and playing: redundant
// clicks must not restart from zero.
func (c *Coordinator) PlayTrack(t track.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.oracle.CanPlay(t.ID) {
		c.promptLocked(c.restrictionLocked(t.ID))
		return errors.Wrapf(ErrForbidden, "play %q", t.ID)
	}
	if cur, ok := c.switcher.Current(); ok && cur.ID == t.ID && c.playing && c.state == StatePlaying {
		return nil
	}
	c.pushOutgoingLocked()
	c.switcher.PlayAdhoc(t)
	return c.startCurrentLocked()
}

// TogglePlayPause flips the playing intent and drives the element. A Play
// refusal leaves the intent on and parks the state in Blocked; the next
// toggle retries.
func (c *Coordinator) TogglePlayPause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.switcher.Current(); !ok {
		return ErrNoTrack
	}
	if c.state == StateBlocked {
		return c.tryPlayLocked()
	}
	if c.playing {
		c.playing = false
		c.element.Pause()
		c.setStateLocked(StatePaused)
		return nil
	}
	return c.tryPlayLocked()
}

// BeginSeek starts a seek gesture. Position callbacks are suppressed until
// the gesture commits, so the displayed position cannot jump backward
// mid-drag.
func (c *Coordinator) BeginSeek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seeking = true
	c.position = c.clampSecondsLocked(seconds)
}

// CommitSeek commits the gesture to the element. Suppression ends when the
// element reports the seek as done.
func (c *Coordinator) CommitSeek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.clampSecondsLocked(seconds)
	c.position = target
	c.element.Seek(target)
}

// Seek is a one-shot gesture: begin and commit in a single call.
func (c *Coordinator) Seek(seconds float64) {
	c.BeginSeek(seconds)
	c.CommitSeek(seconds)
}

// SetVolume clamps level to [0, 1] and applies it. No entitlement check.
func (c *Coordinator) SetVolume(level float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	c.volume = level
	c.element.SetVolume(level)
}

// Volume returns the current volume level.
func (c *Coordinator) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Next skips forward. Manual skipping is entitlement-gated; under LoopOne
// the current track restarts instead of advancing.
func (c *Coordinator) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.oracle.CanSkipManually() {
		c.promptLocked(c.msgSkipLocked())
		return errors.Wrap(ErrForbidden, "skip")
	}
	if c.store.LoopMode() == queue.LoopOne {
		return c.restartCurrentLocked()
	}
	return c.resolveNextLocked()
}

// Previous goes back. History is consulted first; only when it is empty
// does the queue's own retreat rule apply.
func (c *Coordinator) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.oracle.CanSkipManually() {
		c.promptLocked(c.msgSkipLocked())
		return errors.Wrap(ErrForbidden, "skip")
	}
	if prev, ok := c.history.Pop(); ok {
		// When the popped track is exactly the queue's previous entry,
		// retreat instead so queue mode stays authoritative.
		if c.switcher.QueueActive() {
			if pk, ok2 := c.store.PeekPrevious(); ok2 && pk.ID == prev.ID {
				c.store.Retreat()
				return c.startCurrentLocked()
			}
		}
		c.switcher.PlayAdhoc(prev)
		return c.startCurrentLocked()
	}
	if c.store.Retreat() {
		return c.startCurrentLocked()
	}
	return ErrNoPreviousTrack
}

// ToggleLoopMode cycles none -> all -> one -> none. Loop controls share the
// manual-skip gate in the restricted variant.
func (c *Coordinator) ToggleLoopMode() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.oracle.CanSkipManually() {
		c.promptLocked(c.msgSkipLocked())
		return errors.Wrap(ErrForbidden, "loop")
	}
	c.store.SetLoopMode(c.store.LoopMode().Cycle())
	c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
	return nil
}

// ToggleShuffle turns queue shuffling on or off.
func (c *Coordinator) ToggleShuffle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.ToggleShuffle()
	c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
}

// AddToQueue appends t. From single-track mode this re-activates the queue.
func (c *Coordinator) AddToQueue(t track.Track) error {
	return c.joinQueue(t, InsertAppend)
}

// PlayNextInQueue inserts t right after the current entry.
func (c *Coordinator) PlayNextInQueue(t track.Track) error {
	return c.joinQueue(t, InsertNext)
}

// ReplaceQueue discards the queue and plays t from it.
func (c *Coordinator) ReplaceQueue(t track.Track) error {
	return c.joinQueue(t, InsertReplace)
}

func (c *Coordinator) joinQueue(t track.Track, ins Insertion) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.oracle.CanPlay(t.ID) {
		c.promptLocked(c.restrictionLocked(t.ID))
		return errors.Wrapf(ErrForbidden, "queue %q", t.ID)
	}
	before, hadBefore := c.switcher.Current()
	if err := c.switcher.JoinQueue(t, ins); err != nil {
		return err
	}
	c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
	after, ok := c.switcher.Current()
	if !ok {
		return nil
	}
	if !hadBefore || before.ID != after.ID {
		if hadBefore {
			c.history.Push(before)
		}
		return c.startCurrentLocked()
	}
	return nil
}

// RemoveFromQueue removes the entry at index; out-of-range indexes are
// rejected with the queue untouched.
func (c *Coordinator) RemoveFromQueue(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	before, hadBefore := c.switcher.Current()
	if err := c.store.RemoveAt(index); err != nil {
		return err
	}
	c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
	if c.switcher.SingleTrackMode() {
		return nil
	}
	after, ok := c.switcher.Current()
	if !ok || (hadBefore && before.ID != after.ID) {
		return c.startCurrentLocked()
	}
	return nil
}

// MoveInQueue reorders the entry at fromIndex to toIndex.
func (c *Coordinator) MoveInQueue(fromIndex, toIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.MoveTo(fromIndex, toIndex); err != nil {
		return err
	}
	c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
	return nil
}

// ClearQueue empties the queue and drops any paused context. An active
// ad-hoc track keeps playing.
func (c *Coordinator) ClearQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.switcher.ClearQueue()
	c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
	if !c.switcher.SingleTrackMode() {
		_ = c.startCurrentLocked()
	}
}

// PlayQueueIndex jumps the cursor to index and makes the queue
// authoritative, entitlement permitting.
func (c *Coordinator) PlayQueueIndex(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.store.Entries()
	if index < 0 || index >= len(entries) {
		return errors.Wrapf(queue.ErrInvalidIndex, "play index %d of %d", index, len(entries))
	}
	if !c.oracle.CanPlay(entries[index].ID) {
		c.promptLocked(c.restrictionLocked(entries[index].ID))
		return errors.Wrapf(ErrForbidden, "play %q", entries[index].ID)
	}
	c.pushOutgoingLocked()
	if err := c.store.SetCursor(index); err != nil {
		return err
	}
	c.switcher.ActivateQueue()
	return c.startCurrentLocked()
}

// ResumePausedQueue restores a queue parked by an ad-hoc play.
func (c *Coordinator) ResumePausedQueue() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.switcher.HasPausedQueue() {
		return ErrNoPausedQueue
	}
	c.pushOutgoingLocked()
	if err := c.switcher.ResumePausedQueue(); err != nil {
		return err
	}
	c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
	return c.startCurrentLocked()
}

// Close releases the element and the event channel.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.element.Close()
	close(c.eventCh)
}

// --- media element callbacks ---

func (c *Coordinator) onTrackEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.switcher.Current()
	if !ok {
		return
	}
	zlog.Debug().Msgf("player: track ended: %s", cur.Title)

	if c.store.LoopMode() == queue.LoopOne {
		_ = c.restartCurrentLocked()
		return
	}
	c.sendEventLocked(Event{Type: EventTrackEnded, Track: &cur, State: c.state})

	if !c.oracle.CanAutoplay() {
		c.playing = false
		c.setStateLocked(StatePaused)
		if !c.autoplayNotified {
			c.promptLocked(c.msgAutoplayLocked())
			c.autoplayNotified = true
		}
		return
	}
	// Autoplay and manual skip are gated independently; no skip check here,
	// and exhaustion stops playback without erroring.
	if err := c.resolveNextLocked(); err != nil {
		zlog.Debug().Msgf("player: no next track after end: %v", err)
		c.playing = false
		c.setStateLocked(StatePaused)
	}
}

func (c *Coordinator) onPosition(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seeking {
		return
	}
	c.position = seconds
}

func (c *Coordinator) onDuration(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.duration = seconds
}

func (c *Coordinator) onSeeked() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seeking = false
}

// --- locked helpers ---

// resolveNextLocked implements the next-track resolution ladder:
// queue advance, then same-category fallback over a finished queue, then
// paused-queue resume, then same-category fallback for a lone single track.
func (c *Coordinator) resolveNextLocked() error {
	if c.switcher.QueueActive() {
		if nxt, ok := c.store.PeekNext(); ok && c.oracle.CanPlay(nxt.ID) {
			c.pushOutgoingLocked()
			c.store.Advance()
			c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
			return c.startCurrentLocked()
		}
		entries := c.store.Entries()
		last := entries[len(entries)-1]
		if pick, ok := c.randomFromCategoryLocked(last.CategoryID, last.ID); ok {
			c.pushOutgoingLocked()
			c.switcher.ClearQueue()
			c.switcher.PlayAdhoc(pick)
			c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
			return c.startCurrentLocked()
		}
		return ErrNoNextTrack
	}
	if c.switcher.SingleTrackMode() {
		if c.switcher.HasPausedQueue() {
			c.pushOutgoingLocked()
			if err := c.switcher.ResumePausedQueue(); err != nil {
				return err
			}
			c.sendEventLocked(Event{Type: EventQueueChanged, State: c.state})
			return c.startCurrentLocked()
		}
		if cur, ok := c.switcher.Current(); ok {
			if pick, ok2 := c.randomFromCategoryLocked(cur.CategoryID, cur.ID); ok2 {
				c.pushOutgoingLocked()
				c.switcher.PlayAdhoc(pick)
				return c.startCurrentLocked()
			}
		}
	}
	return ErrNoNextTrack
}

// startCurrentLocked binds the derived current track to the element and
// starts it. The locator is reloaded only when the track actually changed;
// redundant loads cause audible restarts.
func (c *Coordinator) startCurrentLocked() error {
	cur, ok := c.switcher.Current()
	if !ok {
		c.playing = false
		c.element.Pause()
		c.setStateLocked(StateIdle)
		return nil
	}
	if cur.ID != c.boundTrackID {
		c.setStateLocked(StateLoading)
		if err := c.element.Load(cur.MediaLocator); err != nil {
			c.playing = false
			c.setStateLocked(StateIdle)
			return errors.Wrapf(err, "load %q", cur.MediaLocator)
		}
		c.boundTrackID = cur.ID
		c.position = 0
		c.duration = cur.Duration.Seconds()
		c.seeking = false
		c.autoplayNotified = false
		t := cur
		c.sendEventLocked(Event{Type: EventTrackStarted, Track: &t, State: c.state})
		zlog.Debug().Msgf("player: bound track: %s", cur.Title)
	}
	return c.tryPlayLocked()
}

// tryPlayLocked starts the element optimistically: the intent is set first
// and only the state is rolled back to Blocked on refusal.
func (c *Coordinator) tryPlayLocked() error {
	c.playing = true
	if err := c.element.Play(); err != nil {
		zlog.Warn().Msgf("player: start refused: %v", err)
		c.setStateLocked(StateBlocked)
		c.sendEventLocked(Event{Type: EventPlaybackBlocked, State: c.state})
		return errors.Wrap(ErrPlaybackBlocked, err.Error())
	}
	c.setStateLocked(StatePlaying)
	return nil
}

func (c *Coordinator) restartCurrentLocked() error {
	if _, ok := c.switcher.Current(); !ok {
		return ErrNoTrack
	}
	c.element.Seek(0)
	c.position = 0
	return c.tryPlayLocked()
}

// pushOutgoingLocked records the outgoing authoritative track before a
// transition, so Previous can find it across context switches.
func (c *Coordinator) pushOutgoingLocked() {
	if cur, ok := c.switcher.Current(); ok {
		c.history.Push(cur)
	}
}

func (c *Coordinator) randomFromCategoryLocked(categoryID, excludeID string) (track.Track, bool) {
	if c.catalog == nil || categoryID == "" {
		return track.Track{}, false
	}
	candidates := make([]track.Track, 0)
	for _, t := range c.catalog.TracksInCategory(categoryID) {
		if t.ID != excludeID && c.oracle.CanPlay(t.ID) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return track.Track{}, false
	}
	return candidates[c.rng.Intn(len(candidates))], true
}

func (c *Coordinator) setStateLocked(next State) {
	if c.state == next {
		return
	}
	c.state = next
	c.sendEventLocked(Event{Type: EventStateChanged, State: next})
}

// sendEventLocked sends an event without blocking.
func (c *Coordinator) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
	}
}

func (c *Coordinator) promptLocked(reason string) {
	if reason == "" || c.prompt == nil {
		return
	}
	zlog.Debug().Msgf("player: prompt: %s", reason)
	c.prompt.Prompt(reason)
}

func (c *Coordinator) clampSecondsLocked(seconds float64) float64 {
	if seconds < 0 {
		return 0
	}
	if c.duration > 0 && seconds > c.duration {
		return c.duration
	}
	return seconds
}

func (c *Coordinator) restrictionLocked(trackID string) string {
	if msg := c.oracle.ExplainRestriction(trackID); msg != "" {
		return msg
	}
	if c.cfg.Messages.PlayRestricted != "" {
		return c.cfg.Messages.PlayRestricted
	}
	return "This track is not available on your plan"
}

func (c *Coordinator) msgSkipLocked() string {
	if c.cfg.Messages.SkipRestricted != "" {
		return c.cfg.Messages.SkipRestricted
	}
	return "Manual track skipping requires a subscription"
}

func (c *Coordinator) msgAutoplayLocked() string {
	if c.cfg.Messages.AutoplayRestricted != "" {
		return c.cfg.Messages.AutoplayRestricted
	}
	return "Subscribe to enable autoplay and access the full library"
}
