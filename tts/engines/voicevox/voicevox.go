// Package voicevox synthesizes speech through a VOICEVOX engine HTTP API.
package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"golang.org/x/time/rate"

	"github.com/learnlink/learnlink/tts"
	"github.com/learnlink/learnlink/tts/audio"
)

// VOICEVOX pitchScale is an offset around zero; ±0.15 is its useful range.
const maxPitchScale = 0.15

// Synthesizer calls /audio_query then /synthesis for every utterance.
// Requests are throttled so a long lesson cannot flood the engine.
type Synthesizer struct {
	config  tts.VoicevoxConfig
	format  audio.Format
	client  *httpkit.Client
	limiter *rate.Limiter
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// New creates a VOICEVOX synthesizer.
func New(config tts.VoicevoxConfig, format audio.Format) *Synthesizer {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if config.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(config.RequestsPerMinute))
	}
	return &Synthesizer{
		config:  config,
		format:  format,
		client:  httpkit.New(config.Timeout),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Name implements tts.Synthesizer.
func (s *Synthesizer) Name() string {
	return tts.EngineVoicevox
}

// Available pings /version.
func (s *Synthesizer) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.Version(ctx); err != nil {
		log.Debug("VOICEVOX unavailable", "url", s.config.URL, "error", err)
		return false
	}
	return true
}

// Version returns the engine version reported by /version.
func (s *Synthesizer) Version(ctx context.Context) (string, error) {
	u, err := s.endpoint("/version", nil)
	if err != nil {
		return "", err
	}
	body, err := s.client.FetchBytes(ctx, u)
	if err != nil {
		return "", fmt.Errorf("voicevox version: %w", err)
	}
	var version string
	if err := json.Unmarshal(body, &version); err != nil {
		return strings.TrimSpace(string(body)), nil
	}
	return version, nil
}

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice tts.VoiceParams) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("voicevox rate limit: %w", err)
	}

	query, err := s.audioQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	body, err := s.applyVoice(query, voice)
	if err != nil {
		return nil, err
	}
	wav, err := s.synthesis(ctx, body)
	if err != nil {
		return nil, err
	}
	pcm, err := audio.DecodeWAV(wav, s.format)
	if err != nil {
		return nil, fmt.Errorf("voicevox output: %w", err)
	}
	return pcm, nil
}

func (s *Synthesizer) audioQuery(ctx context.Context, text string) (map[string]any, error) {
	u, err := s.endpoint("/audio_query", url.Values{
		"text":    {text},
		"speaker": {strconv.Itoa(s.config.Speaker)},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, fmt.Errorf("voicevox audio_query: %w", err)
	}
	data, err := s.client.DoRequest(req)
	if err != nil {
		return nil, fmt.Errorf("voicevox audio_query: %w", err)
	}

	var query map[string]any
	if err := json.Unmarshal(data, &query); err != nil {
		return nil, fmt.Errorf("voicevox audio_query: decode: %w", err)
	}
	return query, nil
}

// applyVoice sets the prosody fields of an audio query from voice.
func (s *Synthesizer) applyVoice(query map[string]any, voice tts.VoiceParams) ([]byte, error) {
	speed := voice.Rate
	if speed <= 0 {
		speed = 1
	}
	query["speedScale"] = speed
	query["pitchScale"] = PitchScale(voice.Pitch)
	query["outputSamplingRate"] = s.format.SampleRate
	query["outputStereo"] = false

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("voicevox audio_query: encode: %w", err)
	}
	return body, nil
}

func (s *Synthesizer) synthesis(ctx context.Context, body []byte) ([]byte, error) {
	u, err := s.endpoint("/synthesis", url.Values{"speaker": {strconv.Itoa(s.config.Speaker)}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("voicevox synthesis: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	wav, err := s.client.DoRequest(req)
	if err != nil {
		return nil, fmt.Errorf("voicevox synthesis: %w", err)
	}
	return wav, nil
}

func (s *Synthesizer) endpoint(path string, query url.Values) (string, error) {
	u, err := url.Parse(s.config.URL)
	if err != nil {
		return "", fmt.Errorf("%w: voicevox url: %w", tts.ErrInvalidConfig, err)
	}
	u = u.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// PitchScale maps a relative pitch (1.0 = default) to VOICEVOX's
// pitchScale offset.
func PitchScale(p float64) float64 {
	if p <= 0 {
		return 0
	}
	v := (p - 1) * 0.5
	return min(max(v, -maxPitchScale), maxPitchScale)
}
