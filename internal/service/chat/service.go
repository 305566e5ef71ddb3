// Package chat orchestrates one streaming completion request: validate,
// compose, stream to the caller while accumulating, then hand the full text
// to a detached best-effort persistence branch.
package chat

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/SENG-401-Lesson-Planner/Backend/internal/domain"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/llm"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/repository"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/service/auth"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/service/prompt"
)

const persistTimeout = 10 * time.Second

// Sink receives one chunk for immediate delivery to the client. A sink error
// means the client is gone; it stops forwarding but not the stream itself.
type Sink func(chunk string) error

// Service drives the request state machine.
type Service struct {
	provider  llm.Provider
	auth      auth.Service
	responses repository.ResponseRepository
	logger    *slog.Logger
}

// New constructs a chat service.
func New(provider llm.Provider, authSvc auth.Service, responses repository.ResponseRepository, logger *slog.Logger) Service {
	return Service{provider: provider, auth: authSvc, responses: responses, logger: logger}
}

// Stream validates the input, composes the prompt, and forwards completion
// chunks to sink as they arrive. When the stream completes and token is a
// valid identity token, the accumulated text is persisted in a detached
// background branch whose failures are logged, never surfaced.
//
// The upstream call runs on a context detached from the request, so a client
// disconnect neither cancels the completion nor skips persistence. An error
// return before the first sink call means no bytes were sent and the caller
// may still emit a structured error response.
func (s Service) Stream(ctx context.Context, in prompt.Input, token string, sink Sink) error {
	if err := prompt.Validate(in); err != nil {
		return err
	}
	messages := toMessages(prompt.Compose(in))

	events, err := s.provider.StreamCompletion(context.WithoutCancel(ctx), messages)
	if err != nil {
		return err
	}

	var full strings.Builder
	var streamErr error
	forwarding := true
	for ev := range events {
		if ev.Err != nil {
			streamErr = ev.Err
			break
		}
		full.WriteString(ev.Delta)
		if forwarding {
			if err := sink(ev.Delta); err != nil {
				s.logger.Warn("client write failed, draining stream", "error", err)
				forwarding = false
			}
		}
	}
	if streamErr != nil {
		// Already-sent chunks stand; the partial text never reaches the
		// persistence branch because the stream did not complete.
		return streamErr
	}

	if token != "" {
		s.persistAsync(token, full.String())
	}
	return nil
}

// persistAsync forks the best-effort write. It owns its own context and
// error handling; nothing here can delay or fail the completed stream.
func (s Service) persistAsync(token, text string) {
	claims, err := s.auth.Authorize(token)
	if err != nil {
		s.logger.Warn("skipping response persistence", "error", err)
		return
	}
	username := claims.Username
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		response := &domain.Response{
			ID:        uuid.NewString(),
			Username:  username,
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.responses.InsertResponse(ctx, response); err != nil {
			s.logger.Warn("response persistence failed", "username", username, "error", err)
			return
		}
		s.logger.Info("response persisted", "username", username, "response_id", response.ID)
	}()
}

// toMessages maps the instruction sequence onto chat roles: every fragment
// is a system instruction except the final one, the user's raw message.
func toMessages(fragments []string) []llm.Message {
	messages := make([]llm.Message, 0, len(fragments))
	for i, fragment := range fragments {
		role := "system"
		if i == len(fragments)-1 {
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: fragment})
	}
	return messages
}
