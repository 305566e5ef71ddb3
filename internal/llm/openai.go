package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"log/slog"
)

// OpenAIClient streams chat completions from the OpenAI API.
type OpenAIClient struct {
	baseURL   string
	apiKey    string
	orgID     string
	projectID string
	model     string
	client    *http.Client
	logger    *slog.Logger
}

var _ Provider = (*OpenAIClient)(nil)

// NewOpenAIClient constructs a streaming client. No request timeout is set:
// a completion runs as long as the model keeps producing tokens.
func NewOpenAIClient(baseURL, apiKey, orgID, projectID, model string, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		orgID:     orgID,
		projectID: projectID,
		model:     model,
		client:    &http.Client{},
		logger:    logger,
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Store    bool      `json:"store"`
	Stream   bool      `json:"stream"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// StreamCompletion issues a streaming chat-completion request and forwards
// each delta on the returned channel. The HTTP round trip happens before the
// channel exists, so a provider that is down or rejects the request fails
// here with an *UpstreamError and no channel is created.
func (c *OpenAIClient) StreamCompletion(ctx context.Context, messages []Message) (<-chan StreamEvent, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Store:    true,
		Stream:   true,
	})
	if err != nil {
		return nil, &UpstreamError{Op: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &UpstreamError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")
	if c.orgID != "" {
		req.Header.Set("OpenAI-Organization", c.orgID)
	}
	if c.projectID != "" {
		req.Header.Set("OpenAI-Project", c.projectID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "chat completion", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.logger.Error("openai request rejected", "status", resp.StatusCode, "body", string(body))
		return nil, &UpstreamError{Op: "chat completion", Status: resp.StatusCode}
	}

	events := make(chan StreamEvent)
	go c.consume(resp.Body, events)
	return events, nil
}

// consume reads the SSE body line by line, decoding each data frame into a
// delta event. The channel is closed exactly once, after [DONE] or a read
// failure, so channel order matches wire order.
func (c *OpenAIClient) consume(body io.ReadCloser, events chan<- StreamEvent) {
	defer close(events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Warn("undecodable stream chunk skipped", "error", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			events <- StreamEvent{Delta: delta}
		}
	}
	if err := scanner.Err(); err != nil {
		events <- StreamEvent{Err: &UpstreamError{Op: "read stream", Err: fmt.Errorf("scan response: %w", err)}}
	}
}
