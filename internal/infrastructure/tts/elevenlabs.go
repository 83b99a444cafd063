// Package tts renders speaker lines to MP3 through the ElevenLabs API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"DailyCast/internal/config"
	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
	"DailyCast/internal/retry"
)

const maxAudioBytes = 64 << 20

// ElevenLabsClient implements ports.SpeechSynthesizer.
type ElevenLabsClient struct {
	endpoint        string
	apiKey          string
	modelID         string
	stability       float64
	similarityBoost float64
	policy          retry.Policy
	httpClient      *http.Client
}

var _ ports.SpeechSynthesizer = (*ElevenLabsClient)(nil)

// NewElevenLabsClient builds a client from configuration.
func NewElevenLabsClient(cfg config.SpeechConfig, policy retry.Policy) *ElevenLabsClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &ElevenLabsClient{
		endpoint:        strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		apiKey:          strings.TrimSpace(cfg.APIKey),
		modelID:         cfg.ModelID,
		stability:       cfg.Stability,
		similarityBoost: cfg.SimilarityBoost,
		policy:          policy,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize returns MP3 bytes for one line in the line's voice.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, line domain.SpeakerLine) ([]byte, error) {
	if c.apiKey == "" || c.endpoint == "" {
		return nil, errors.New("elevenlabs client misconfigured")
	}
	if strings.TrimSpace(line.VoiceID) == "" {
		return nil, fmt.Errorf("line %d (%s): no voice configured", line.Index, line.Speaker)
	}

	body, err := json.Marshal(speechRequest{
		Text:    line.Text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}
	endpoint := c.endpoint + "/" + url.PathEscape(line.VoiceID)
	op := fmt.Sprintf("synthesize line %d", line.Index)

	var audio []byte
	err = c.policy.Do(ctx, op, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%s: new request: %w", op, err)
		}
		req.Header.Set("xi-api-key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
		if err != nil {
			return fmt.Errorf("%s: read audio: %w", op, err)
		}
		if resp.StatusCode != http.StatusOK {
			return retry.NewStatusError(op, resp, data)
		}
		if len(data) == 0 {
			return fmt.Errorf("%s: empty audio", op)
		}
		audio = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}
