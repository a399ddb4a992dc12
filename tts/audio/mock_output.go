package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// MockOutput implements Output without an audio device. Players report
// IsPlaying for as long as their PCM would take to play, scaled by Speed.
type MockOutput struct {
	mu     sync.Mutex
	format Format
	speed  float64
	closed bool

	// Test helpers
	PlayersCreated int
	PlayersClosed  int
	Volumes        []float64
}

// NewMockOutput creates a silent output.
func NewMockOutput(format Format) *MockOutput {
	return &MockOutput{format: format, speed: 1}
}

// SetSpeed makes simulated playback run speed times faster than real time.
func (m *MockOutput) SetSpeed(speed float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if speed > 0 {
		m.speed = speed
	}
}

// NewPlayer implements Output. It consumes r immediately.
func (m *MockOutput) NewPlayer(r io.Reader) (Player, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("mock audio output closed")
	}
	m.PlayersCreated++

	d := time.Duration(float64(m.format.Duration(len(data))) / m.speed)
	log.Debug("Created mock audio player", "data_size", len(data), "duration", d)
	return &mockPlayer{output: m, duration: d, volume: 1}, nil
}

// Format implements Output.
func (m *MockOutput) Format() Format {
	return m.format
}

// Close implements Output.
func (m *MockOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Stats returns how many players were created and closed.
func (m *MockOutput) Stats() (created, closed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PlayersCreated, m.PlayersClosed
}

type mockPlayer struct {
	output   *MockOutput
	mu       sync.Mutex
	duration time.Duration
	started  time.Time
	played   time.Duration // accumulated before the last pause
	running  bool
	closed   bool
	volume   float64
}

func (p *mockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.running {
		return
	}
	p.running = true
	p.started = time.Now()
}

func (p *mockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.played += time.Since(p.started)
	p.running = false
}

func (p *mockPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running || p.closed {
		return false
	}
	if p.played+time.Since(p.started) >= p.duration {
		p.running = false
		return false
	}
	return true
}

func (p *mockPlayer) SetVolume(volume float64) {
	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()

	p.output.mu.Lock()
	p.output.Volumes = append(p.output.Volumes, volume)
	p.output.mu.Unlock()
}

func (p *mockPlayer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.running = false
	p.mu.Unlock()

	p.output.mu.Lock()
	p.output.PlayersClosed++
	p.output.mu.Unlock()
	return nil
}
