// Package responses serves the authenticated response-history operations.
package responses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/SENG-401-Lesson-Planner/Backend/internal/domain"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/repository"
)

// ErrValidation marks malformed response payloads.
var ErrValidation = errors.New("responses: invalid input")

const maxResponseLen = 100_000

// Service manages persisted completion records.
type Service struct {
	repo   repository.ResponseRepository
	logger *slog.Logger
}

// New constructs a response service.
func New(repo repository.ResponseRepository, logger *slog.Logger) Service {
	return Service{repo: repo, logger: logger}
}

// History returns the caller's responses, newest first.
func (s Service) History(ctx context.Context, username string) ([]domain.Response, error) {
	return s.repo.ListResponsesByUsername(ctx, username)
}

// Add stores a response text against the caller.
func (s Service) Add(ctx context.Context, username, text string) (*domain.Response, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: response is required", ErrValidation)
	}
	if len(text) > maxResponseLen {
		return nil, fmt.Errorf("%w: response exceeds %d characters", ErrValidation, maxResponseLen)
	}
	response := &domain.Response{
		ID:        uuid.NewString(),
		Username:  username,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertResponse(ctx, response); err != nil {
		return nil, err
	}
	s.logger.Info("response added", "username", username, "response_id", response.ID)
	return response, nil
}

// Remove deletes a response owned by the caller.
func (s Service) Remove(ctx context.Context, username, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: response must be a record id", ErrValidation)
	}
	if err := s.repo.DeleteResponse(ctx, username, id); err != nil {
		return err
	}
	s.logger.Info("response removed", "username", username, "response_id", id)
	return nil
}
