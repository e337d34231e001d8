// Package media binds playback to the local audio device. It implements
// the coordinator's media element over beep: one physical output, owned
// exclusively by whoever constructed it.
package media

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"
)

// ErrNotLoaded is returned when Play is called before any Load.
var ErrNotLoaded = errors.New("no media loaded")

const speakerBuffer = 100 * time.Millisecond

// Speaker plays local audio files through the system output device.
// Callbacks are delivered from the position ticker goroutine or from the
// speaker's own goroutine, never from inside a Speaker method call.
type Speaker struct {
	mu sync.Mutex

	speakerRate beep.SampleRate
	initialized bool

	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	level   float64
	drained bool // The current sequence ran to its end and left the mixer

	onEnded    func()
	onPosition func(float64)
	onDuration func(float64)
	onSeeked   func()

	done chan struct{}
	once sync.Once
}

// NewSpeaker creates a speaker emitting position callbacks at the given
// interval.
func NewSpeaker(positionInterval time.Duration) *Speaker {
	if positionInterval <= 0 {
		positionInterval = 500 * time.Millisecond
	}
	s := &Speaker{
		level: 1,
		done:  make(chan struct{}),
	}
	go s.positionLoop(positionInterval)
	return s
}

// OnEnded registers the end-of-track callback.
func (s *Speaker) OnEnded(fn func()) { s.mu.Lock(); s.onEnded = fn; s.mu.Unlock() }

// OnPosition registers the position callback (seconds).
func (s *Speaker) OnPosition(fn func(float64)) { s.mu.Lock(); s.onPosition = fn; s.mu.Unlock() }

// OnDuration registers the duration callback (seconds).
func (s *Speaker) OnDuration(fn func(float64)) { s.mu.Lock(); s.onDuration = fn; s.mu.Unlock() }

// OnSeeked registers the seek-complete callback.
func (s *Speaker) OnSeeked(fn func()) { s.mu.Lock(); s.onSeeked = fn; s.mu.Unlock() }

// Load decodes the file at locator and stages it, paused, on the output.
// The first load initializes the output device at the file's sample rate;
// later files with other rates are resampled.
func (s *Speaker) Load(locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unloadLocked()

	f, err := os.Open(locator)
	if err != nil {
		return errors.Wrapf(err, "open %q", locator)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(locator)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		_ = f.Close()
		return errors.Newf("unsupported media format %q", filepath.Ext(locator))
	}
	if err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "decode %q", locator)
	}

	if !s.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(speakerBuffer)); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return errors.Wrap(err, "init speaker")
		}
		s.speakerRate = format.SampleRate
		s.initialized = true
	}

	s.file = f
	s.streamer = streamer
	s.format = format
	s.drained = false
	s.stageLocked(true)

	if cb := s.onDuration; cb != nil {
		d := s.durationSecondsLocked()
		go cb(d)
	}
	zlog.Debug().Msgf("media: loaded %s (%.0fs @ %d Hz)", locator, s.durationSecondsLocked(), format.SampleRate)
	return nil
}

// Play unpauses the staged stream. Re-stages a drained stream from the
// start so a repeated track restarts cleanly.
func (s *Speaker) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return ErrNotLoaded
	}
	if s.drained {
		if s.streamer.Position() >= s.streamer.Len() {
			if err := s.streamer.Seek(0); err != nil {
				return errors.Wrap(err, "rewind")
			}
		}
		s.drained = false
		s.stageLocked(false)
		return nil
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause pauses the output.
func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

// Seek moves the stream to the given position.
func (s *Speaker) Seek(seconds float64) {
	s.mu.Lock()
	if s.streamer == nil {
		s.mu.Unlock()
		return
	}
	target := s.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if target < 0 {
		target = 0
	}
	if limit := s.streamer.Len(); target > limit {
		target = limit
	}
	speaker.Lock()
	err := s.streamer.Seek(target)
	speaker.Unlock()
	cb := s.onSeeked
	s.mu.Unlock()

	if err != nil {
		zlog.Warn().Msgf("media: seek failed: %v", err)
	}
	if cb != nil {
		go cb()
	}
}

// SetVolume applies a linear [0, 1] level to the output.
func (s *Speaker) SetVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = level
	if s.volume == nil {
		return
	}
	speaker.Lock()
	s.applyVolumeLocked()
	speaker.Unlock()
}

// Close stops the ticker and releases the current stream.
func (s *Speaker) Close() error {
	s.once.Do(func() { close(s.done) })
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unloadLocked()
	return nil
}

// stageLocked rebuilds the ctrl/volume chain over the current streamer and
// hands it to the output, resampling when the file rate differs from the
// device rate.
func (s *Speaker) stageLocked(paused bool) {
	var base beep.Streamer = s.streamer
	if s.format.SampleRate != s.speakerRate {
		base = beep.Resample(4, s.format.SampleRate, s.speakerRate, s.streamer)
	}
	s.volume = &effects.Volume{Streamer: base, Base: 2}
	s.applyVolumeLocked()
	s.ctrl = &beep.Ctrl{Streamer: s.volume, Paused: paused}

	speaker.Clear()
	speaker.Play(beep.Seq(s.ctrl, beep.Callback(s.handleDrained)))
}

// handleDrained runs on the speaker goroutine when the sequence finishes.
func (s *Speaker) handleDrained() {
	go func() {
		s.mu.Lock()
		s.drained = true
		cb := s.onEnded
		s.mu.Unlock()
		if cb != nil {
			cb()
		}
	}()
}

func (s *Speaker) applyVolumeLocked() {
	if s.level <= 0 {
		s.volume.Silent = true
		return
	}
	s.volume.Silent = false
	s.volume.Volume = math.Log2(s.level)
}

func (s *Speaker) unloadLocked() {
	if s.initialized && s.ctrl != nil {
		speaker.Clear()
	}
	if s.streamer != nil {
		_ = s.streamer.Close()
		s.streamer = nil
	}
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	s.ctrl = nil
	s.volume = nil
	s.drained = false
}

func (s *Speaker) durationSecondsLocked() float64 {
	if s.streamer == nil {
		return 0
	}
	return float64(s.streamer.Len()) / float64(s.format.SampleRate)
}

func (s *Speaker) positionLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.streamer == nil || s.ctrl == nil {
				s.mu.Unlock()
				continue
			}
			speaker.Lock()
			paused := s.ctrl.Paused
			pos := float64(s.streamer.Position()) / float64(s.format.SampleRate)
			speaker.Unlock()
			cb := s.onPosition
			s.mu.Unlock()
			if !paused && cb != nil {
				cb(pos)
			}
		}
	}
}
