package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client calls an external speech-to-text service.
//
// The service contract is a POST to /transcribe with a multipart body:
// file field "audio" and an optional form field "language".
type Client struct {
	baseURL         string
	defaultLanguage string
	httpClient      *http.Client
}

// NewClient creates a transcription client for the service at baseURL
func NewClient(baseURL, defaultLanguage string, timeout time.Duration) *Client {
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL:         baseURL,
		defaultLanguage: defaultLanguage,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) Transcribe(ctx context.Context, req Request) (*Result, error) {
	language := req.Language
	if language == "" {
		language = c.defaultLanguage
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, req.Audio); err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.WriteField("language", language); err != nil {
		return nil, fmt.Errorf("write language field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transcription service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, string(detail))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return &result, nil
}
