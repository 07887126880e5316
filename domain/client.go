package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/wangArtsoar/tars/apperror"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash-lite-preview-06-17"
)

// Client sends one generateContent call per Query and returns the first text
// answer. It never retries.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	log        *logrus.Entry
}

type ClientConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

func NewClient(cfg ClientConfig, httpClient *http.Client, log *logrus.Entry) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "gemini")
	if cfg.APIKey == "" {
		log.Warn("GOOGLE_API_KEY is not set, model queries will fail")
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		log:        log,
	}
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
}

// Query posts {contents: history} and returns the text of the first part of
// the first candidate.
func (c *Client) Query(ctx context.Context, history []*Content) (string, error) {
	if c.apiKey == "" {
		return "", apperror.New(apperror.KindMissingCredential, "GOOGLE_API_KEY environment variable not set", nil)
	}

	body, err := json.Marshal(&RequestBody{Contents: history})
	if err != nil {
		return "", apperror.New(apperror.KindTransport, "error marshalling request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", apperror.New(apperror.KindTransport, "error creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.WithFields(logrus.Fields{
		"model":    c.model,
		"messages": len(history),
		"bytes":    len(body),
	}).Debug("sending generateContent request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperror.New(apperror.KindTransport, "Request failed", stripKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperror.New(apperror.KindTransport, "Failed to read response", err)
	}
	text := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithField("status", resp.StatusCode).Warn("generateContent rejected")
		return "", apperror.WithBody(apperror.KindRemoteRejected, "API returned error", resp.StatusCode, text, nil)
	}

	var parsed GeminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperror.WithBody(apperror.KindMalformedResponse, "Failed to parse response", resp.StatusCode, text, err)
	}

	answer, reason := firstText(&parsed)
	if reason != "" {
		return "", apperror.WithBody(apperror.KindEmptyResponse, "No response from Gemini: "+reason, resp.StatusCode, text, nil)
	}
	c.log.WithFields(logrus.Fields{
		"model_version": parsed.ModelVersion,
		"finish_reason": parsed.Candidates[0].FinishReason,
	}).Debug("answer received")
	return answer, nil
}

// firstText walks candidates[0].content.parts[0].text. A non-empty reason
// names the step that came up empty.
func firstText(resp *GeminiResponse) (string, string) {
	if len(resp.Candidates) == 0 {
		return "", "no candidates"
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", "first candidate has no parts"
	}
	if parts[0] == nil || parts[0].Text == "" {
		return "", "first part has no text"
	}
	return parts[0].Text, ""
}

// stripKey keeps the credential out of url.Error messages.
func stripKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
