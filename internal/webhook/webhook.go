package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// DefaultUsername is shown as the author of image posts
const DefaultUsername = "MapRgbScanner"

// Sender delivers scan results to a Discord-style webhook.
// Delivery is best effort: no retries, no backoff.
type Sender struct {
	HTTPClient *http.Client
	Username   string
}

// StatusError reports a non-2xx response from the webhook
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook returned HTTP %d: %s", e.StatusCode, e.Body)
}

// NewSender creates a new webhook sender
func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sender{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Username: DefaultUsername,
	}
}

// SendPNG posts an image with a caption as multipart/form-data.
// The response status is not inspected; only failures to build or
// transmit the request are returned. A blank url sends nothing.
func (s *Sender) SendPNG(ctx context.Context, webhookURL string, png []byte, fileName, caption string) error {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"content":  caption,
		"username": s.username(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	payloadHeader := make(textproto.MIMEHeader)
	payloadHeader.Set("Content-Disposition", `form-data; name="payload_json"`)
	payloadHeader.Set("Content-Type", "application/json; charset=UTF-8")
	part, err := mw.CreatePart(payloadHeader)
	if err != nil {
		return fmt.Errorf("failed to create payload part: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload part: %w", err)
	}

	fileHeader := make(textproto.MIMEHeader)
	fileHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	fileHeader.Set("Content-Type", "image/png")
	part, err = mw.CreatePart(fileHeader)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return fmt.Errorf("failed to write file part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, &body)
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client().Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// SendMessage posts a plain text message as JSON.
// Any non-2xx response is returned as a *StatusError. A blank url sends nothing.
func (s *Sender) SendMessage(ctx context.Context, webhookURL, content string) error {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil
	}

	requestBody, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewReader(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client().Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// LooksLikeDiscordWebhook reports whether url points at Discord's webhook API
func LooksLikeDiscordWebhook(url string) bool {
	return strings.HasPrefix(url, "https://discord.com/api/webhooks/") ||
		strings.HasPrefix(url, "https://discordapp.com/api/webhooks/")
}

func (s *Sender) client() *http.Client {
	if s.HTTPClient == nil {
		return http.DefaultClient
	}
	return s.HTTPClient
}

func (s *Sender) username() string {
	if s.Username == "" {
		return DefaultUsername
	}
	return s.Username
}
