package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/jmylchreest/hudtoast/internal/model"
)

// ErrNoSound is returned when a notification type has no bound sound.
var ErrNoSound = errors.New("no sound bound")

// SoundPlayer plays the sound bound to each notification type.
type SoundPlayer interface {
	// Bind sets the sound file for t. An empty path unbinds it.
	Bind(t model.Type, path string)
	Preload(t model.Type) error
	Play(t model.Type) error
	// Invalidate drops decoded audio for path so the next play re-reads it.
	Invalidate(path string)
	SetVolume(volume float64)
	Close()
}

// Player is a per-type sound bank played through the system speaker.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	volume      float64 // 0.0 to 1.0
	initialized bool
	sampleRate  beep.SampleRate

	bank map[model.Type]*slot
}

// slot is one bank entry. buffer is nil until first use and after the file
// changes on disk.
type slot struct {
	path   string
	buffer *beep.Buffer
}

// NewPlayer creates an empty sound bank.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		logger:     logger,
		volume:     1.0,
		sampleRate: beep.SampleRate(44100),
		bank:       make(map[model.Type]*slot),
	}
}

// Bind sets the sound file for t, dropping any audio decoded for the
// previous binding.
func (p *Player) Bind(t model.Type, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if path == "" {
		delete(p.bank, t)
		return
	}
	p.bank[t] = &slot{path: filepath.Clean(expandPath(path))}
}

// Bound returns the sound file bound to t, or "".
func (p *Player) Bound(t model.Type) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.bank[t]; ok {
		return s.path
	}
	return ""
}

// SetVolume sets the playback volume, clamped to 0.0..1.0.
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = max(0, min(volume, 1))
	p.logger.Debug("volume set", "volume", p.volume)
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Preload decodes the sound bound to t ahead of its first toast.
func (p *Player) Preload(t model.Type) error {
	if _, err := p.decoded(t); err != nil {
		return err
	}
	p.logger.Debug("preloaded sound", "type", t)
	return nil
}

// Play plays the sound bound to t. Supports WAV, OGG and MP3.
func (p *Player) Play(t model.Type) error {
	buffer, err := p.decoded(t)
	if err != nil {
		return err
	}

	p.mu.Lock()
	volume := p.volume
	sampleRate := p.sampleRate
	p.mu.Unlock()

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())
	if buffer.Format().SampleRate != sampleRate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, sampleRate, streamer)
	}
	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   volumeToDecibels(volume),
			Silent:   volume == 0,
		}
	}

	speaker.Play(streamer)
	return nil
}

// decoded returns the audio for t, decoding the bound file on first use.
func (p *Player) decoded(t model.Type) (*beep.Buffer, error) {
	p.mu.Lock()
	s, ok := p.bank[t]
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w for %s", ErrNoSound, t)
	}
	if s.buffer != nil {
		buffer := s.buffer
		p.mu.Unlock()
		return buffer, nil
	}
	path := s.path
	p.mu.Unlock()

	buffer, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	if err := p.ensureInitialized(buffer.Format().SampleRate); err != nil {
		return nil, err
	}

	p.mu.Lock()
	// A rebind while decoding wins over the stale file.
	if p.bank[t] == s {
		s.buffer = buffer
	}
	p.mu.Unlock()

	return buffer, nil
}

// decodeFile reads a whole sound file into memory.
func decodeFile(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}

// ensureInitialized opens the speaker at the first decoded sample rate.
func (p *Player) ensureInitialized(sampleRate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	// 100ms keeps toast sounds responsive
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p.sampleRate = sampleRate
	p.initialized = true
	p.logger.Debug("speaker initialized", "sample_rate", sampleRate)
	return nil
}

// Invalidate drops decoded audio for every type bound to path.
func (p *Player) Invalidate(path string) {
	path = filepath.Clean(expandPath(path))

	p.mu.Lock()
	defer p.mu.Unlock()

	for t, s := range p.bank {
		if s.path == path && s.buffer != nil {
			s.buffer = nil
			p.logger.Debug("sound invalidated", "type", t, "path", path)
		}
	}
}

// Close stops playback and drops decoded audio. Bindings are kept.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		speaker.Close()
		p.initialized = false
	}
	for _, s := range p.bank {
		s.buffer = nil
	}
	p.logger.Debug("audio player closed")
}

// volumeToDecibels converts a linear volume (0-1) to decibels.
func volumeToDecibels(volume float64) float64 {
	if volume <= 0 {
		return -100 // Effectively silent
	}
	// 0.5 = -6dB, 0.25 = -12dB
	return 20 * math.Log10(volume)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
