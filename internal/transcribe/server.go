package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http2"
)

const (
	serverMaxRetries = 3
	serverBaseDelay  = 500 * time.Millisecond
)

// ServerTranscriber uploads audio to a local inference server over
// HTTP and reads the recognized text from its JSON reply.
type ServerTranscriber struct {
	url        string
	token      string
	sampleRate uint32
	hints      Hints
	client     *http.Client
}

// NewServerTranscriber creates a transcriber that posts WAV-encoded
// samples to url. token, when non-empty, is sent as a bearer token.
func NewServerTranscriber(url, token string, sampleRate uint32, hints Hints) *ServerTranscriber {
	transport := &http.Transport{}
	// Inference servers increasingly speak h2; negotiating it avoids a
	// per-request connection when the engine supports it.
	_ = http2.ConfigureTransport(transport)

	return &ServerTranscriber{
		url:        url,
		token:      token,
		sampleRate: sampleRate,
		hints:      hints,
		client: &http.Client{
			Transport: transport,
			Timeout:   2 * time.Minute,
		},
	}
}

// Close releases the idle connections held by the HTTP client.
func (t *ServerTranscriber) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// engineResponse is the JSON reply shape of the inference server.
type engineResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the samples and returns the recognized text.
// Transport failures are retried with exponential backoff; HTTP error
// statuses are not, since the engine already saw the audio.
func (t *ServerTranscriber) Transcribe(ctx context.Context, samples []float32) (string, error) {
	wavData, err := encodeWAV(samples, t.sampleRate)
	if err != nil {
		return "", err
	}

	delay := serverBaseDelay
	var lastErr error
	for attempt := 1; attempt <= serverMaxRetries; attempt++ {
		text, retryable, err := t.upload(ctx, wavData)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable || attempt == serverMaxRetries {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("transcribe: %w", ctx.Err())
		}
		delay *= 2
	}
	return "", lastErr
}

// upload performs one multipart POST. The second return value reports
// whether the failure is worth retrying.
func (t *ServerTranscriber) upload(ctx context.Context, wavData []byte) (string, bool, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", false, fmt.Errorf("transcribe: create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", false, fmt.Errorf("transcribe: write form file: %w", err)
	}

	// Engine tuning hints travel as plain form fields, unchanged.
	if t.hints.Language != "" {
		_ = writer.WriteField("language", t.hints.Language)
	}
	if t.hints.Quantization != "" {
		_ = writer.WriteField("quantization", t.hints.Quantization)
	}
	if t.hints.Providers != "" {
		_ = writer.WriteField("providers", t.hints.Providers)
	}
	if t.hints.Threads > 0 {
		_ = writer.WriteField("threads", strconv.Itoa(t.hints.Threads))
	}
	if err := writer.Close(); err != nil {
		return "", false, fmt.Errorf("transcribe: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, body)
	if err != nil {
		return "", false, fmt.Errorf("transcribe: new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("transcribe: engine unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the error message, no more.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", false, fmt.Errorf("transcribe: engine returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var reply engineResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", false, fmt.Errorf("transcribe: decode engine reply: %w", err)
	}

	return strings.TrimSpace(reply.Text), false, nil
}
