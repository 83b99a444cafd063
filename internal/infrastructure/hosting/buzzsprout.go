// Package hosting uploads finished episodes to Buzzsprout.
package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"DailyCast/internal/config"
	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
	"DailyCast/internal/retry"
)

// BuzzsproutClient implements ports.Publisher.
type BuzzsproutClient struct {
	endpoint   string
	podcastID  string
	apiKey     string
	private    bool
	policy     retry.Policy
	sanitizer  *bluemonday.Policy
	httpClient *http.Client
}

var _ ports.Publisher = (*BuzzsproutClient)(nil)

// NewBuzzsproutClient builds a client from configuration.
func NewBuzzsproutClient(cfg config.HostingConfig, policy retry.Policy) *BuzzsproutClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &BuzzsproutClient{
		endpoint:   strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		podcastID:  strings.TrimSpace(cfg.PodcastID),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		private:    cfg.Private,
		policy:     policy,
		sanitizer:  bluemonday.UGCPolicy(),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type episodeResponse struct {
	ID       json.RawMessage `json:"id"`
	AudioURL string          `json:"audio_url"`
}

// Publish uploads the episode as multipart form data. The audio URL may be
// empty while the host is still processing the file.
func (c *BuzzsproutClient) Publish(ctx context.Context, audio domain.EpisodeAudio, script domain.EpisodeScript) (domain.PublishedEpisode, error) {
	if c.apiKey == "" || c.podcastID == "" || c.endpoint == "" {
		return domain.PublishedEpisode{}, errors.New("buzzsprout client misconfigured")
	}
	if len(audio.Data) == 0 {
		return domain.PublishedEpisode{}, errors.New("buzzsprout: empty audio")
	}

	body, contentType, err := c.form(audio, script)
	if err != nil {
		return domain.PublishedEpisode{}, err
	}
	endpoint := fmt.Sprintf("%s/%s/episodes.json", c.endpoint, url.PathEscape(c.podcastID))

	var published domain.PublishedEpisode
	err = c.policy.Do(ctx, "buzzsprout upload", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("buzzsprout upload: new request: %w", err)
		}
		req.Header.Set("Authorization", "Token token="+c.apiKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("buzzsprout upload: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("buzzsprout upload: read response: %w", err)
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return retry.NewStatusError("buzzsprout upload", resp, raw)
		}

		var parsed episodeResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return fmt.Errorf("buzzsprout upload: decode response: %w", err)
		}
		published = domain.PublishedEpisode{ID: episodeID(parsed.ID), AudioURL: parsed.AudioURL}
		return nil
	})
	if err != nil {
		return domain.PublishedEpisode{}, err
	}
	if published.ID == "" {
		return domain.PublishedEpisode{}, errors.New("buzzsprout upload: response carried no episode id")
	}
	return published, nil
}

func (c *BuzzsproutClient) form(audio domain.EpisodeAudio, script domain.EpisodeScript) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio_file"; filename=%q`, audio.FileName))
	header.Set("Content-Type", "audio/mpeg")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("buzzsprout form: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", fmt.Errorf("buzzsprout form: %w", err)
	}

	fields := [][2]string{
		{"title", script.Title},
		{"description", c.sanitizer.Sanitize(script.Description)},
		{"private", strconv.FormatBool(c.private)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("buzzsprout form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("buzzsprout form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// episodeID accepts the id as a JSON number or string.
func episodeID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.TrimSpace(string(raw))
}
