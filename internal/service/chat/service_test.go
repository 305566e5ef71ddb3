package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/SENG-401-Lesson-Planner/Backend/internal/domain"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/llm"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/repository"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/service/auth"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/service/prompt"
	"github.com/SENG-401-Lesson-Planner/Backend/pkg/crypto"
	jwtpkg "github.com/SENG-401-Lesson-Planner/Backend/pkg/jwt"
)

const testSecret = "chat-test-secret"

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInput() prompt.Input {
	return prompt.Input{Message: "Plan a lesson about tides", GradeLevel: "7"}
}

type providerMock struct {
	events   []llm.StreamEvent
	startErr error
	messages []llm.Message
}

func (p *providerMock) StreamCompletion(_ context.Context, messages []llm.Message) (<-chan llm.StreamEvent, error) {
	p.messages = messages
	if p.startErr != nil {
		return nil, p.startErr
	}
	ch := make(chan llm.StreamEvent)
	go func() {
		defer close(ch)
		for _, ev := range p.events {
			ch <- ev
		}
	}()
	return ch, nil
}

type responseRepoMock struct {
	insertFunc func(ctx context.Context, response *domain.Response) error
}

func (m *responseRepoMock) InsertResponse(ctx context.Context, response *domain.Response) error {
	if m.insertFunc == nil {
		return nil
	}
	return m.insertFunc(ctx, response)
}

func (m *responseRepoMock) ListResponsesByUsername(context.Context, string) ([]domain.Response, error) {
	return nil, nil
}

func (m *responseRepoMock) DeleteResponse(context.Context, string, string) error {
	return nil
}

type userRepoStub struct{}

func (userRepoStub) CreateUser(context.Context, *domain.User) error { return nil }
func (userRepoStub) GetUserByUsername(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func issueToken(t *testing.T, username string) string {
	t.Helper()
	hash, err := crypto.HashPassword("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	token, err := jwtpkg.Generate(username, hash, testSecret)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func deltas(chunks ...string) []llm.StreamEvent {
	events := make([]llm.StreamEvent, 0, len(chunks))
	for _, c := range chunks {
		events = append(events, llm.StreamEvent{Delta: c})
	}
	return events
}

func TestStreamForwardsChunksAndPersistsFullText(t *testing.T) {
	provider := &providerMock{events: deltas("A lesson ", "plan ", "appears.")}
	persisted := make(chan *domain.Response, 1)
	repo := &responseRepoMock{
		insertFunc: func(_ context.Context, response *domain.Response) error {
			persisted <- response
			return nil
		},
	}
	svc := New(provider, auth.New(userRepoStub{}, newLogger(), testSecret), repo, newLogger())

	var sent []string
	err := svc.Stream(context.Background(), validInput(), issueToken(t, "validUser1"), func(chunk string) error {
		sent = append(sent, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(sent, ""); got != "A lesson plan appears." {
		t.Fatalf("forwarded chunks out of order or incomplete: %q", got)
	}

	select {
	case response := <-persisted:
		if response.Username != "validUser1" {
			t.Fatalf("persisted against wrong owner: %q", response.Username)
		}
		if response.Text != strings.Join(sent, "") {
			t.Fatalf("persisted text must equal concatenated chunks: %q", response.Text)
		}
		if response.ID == "" {
			t.Fatalf("expected generated record id")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("persistence branch never fired")
	}
}

func TestStreamComposesInstructionsBeforeMessage(t *testing.T) {
	provider := &providerMock{events: deltas("ok")}
	svc := New(provider, auth.New(userRepoStub{}, newLogger(), testSecret), &responseRepoMock{}, newLogger())

	in := prompt.Input{Message: "Plan a lesson about tides", GradeLevel: "7", Subject: "Science", DurationMinutes: 30}
	if err := svc.Stream(context.Background(), in, "", func(string) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(provider.messages))
	}
	last := provider.messages[len(provider.messages)-1]
	if last.Role != "user" || last.Content != in.Message {
		t.Fatalf("raw message must be the final user entry: %+v", last)
	}
	for _, m := range provider.messages[:len(provider.messages)-1] {
		if m.Role != "system" {
			t.Fatalf("instruction fragments must be system messages: %+v", m)
		}
	}
}

func TestStreamRejectsInvalidInputBeforeUpstream(t *testing.T) {
	provider := &providerMock{startErr: errors.New("must not be called")}
	svc := New(provider, auth.New(userRepoStub{}, newLogger(), testSecret), &responseRepoMock{}, newLogger())

	err := svc.Stream(context.Background(), prompt.Input{Message: "", GradeLevel: "7"}, "", func(string) error {
		t.Fatalf("sink must not receive chunks for invalid input")
		return nil
	})
	if !errors.Is(err, prompt.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if provider.messages != nil {
		t.Fatalf("upstream must not be contacted for invalid input")
	}
}

func TestStreamUpstreamFailureBeforeFirstChunk(t *testing.T) {
	provider := &providerMock{startErr: &llm.UpstreamError{Op: "chat completion", Status: 503}}
	svc := New(provider, auth.New(userRepoStub{}, newLogger(), testSecret), &responseRepoMock{}, newLogger())

	err := svc.Stream(context.Background(), validInput(), "", func(string) error {
		t.Fatalf("no chunk may be sent when upstream fails up front")
		return nil
	})
	var upstreamErr *llm.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestStreamMidStreamFailureKeepsSentChunksAndSkipsPersist(t *testing.T) {
	events := deltas("partial ")
	events = append(events, llm.StreamEvent{Err: &llm.UpstreamError{Op: "read stream", Err: errors.New("connection reset")}})
	provider := &providerMock{events: events}
	repo := &responseRepoMock{
		insertFunc: func(_ context.Context, _ *domain.Response) error {
			t.Errorf("partial output must not be persisted")
			return nil
		},
	}
	svc := New(provider, auth.New(userRepoStub{}, newLogger(), testSecret), repo, newLogger())

	var sent []string
	err := svc.Stream(context.Background(), validInput(), issueToken(t, "validUser1"), func(chunk string) error {
		sent = append(sent, chunk)
		return nil
	})
	if err == nil {
		t.Fatalf("expected mid-stream error to surface")
	}
	if strings.Join(sent, "") != "partial " {
		t.Fatalf("already-sent chunks must stand: %v", sent)
	}
}

func TestStreamInvalidTokenSkipsPersistence(t *testing.T) {
	provider := &providerMock{events: deltas("full text")}
	inserted := false
	repo := &responseRepoMock{
		insertFunc: func(_ context.Context, _ *domain.Response) error {
			inserted = true
			return nil
		},
	}
	svc := New(provider, auth.New(userRepoStub{}, newLogger(), testSecret), repo, newLogger())

	foreign, err := jwtpkg.Generate("validUser1", []byte("hash"), "some-other-secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := svc.Stream(context.Background(), validInput(), foreign, func(string) error { return nil }); err != nil {
		t.Fatalf("invalid token must not fail the stream: %v", err)
	}
	// Token verification happens before the write goroutine is spawned, so
	// a rejected token means no insert can be in flight.
	if inserted {
		t.Fatalf("persistence must be skipped for an unverifiable token")
	}
}

func TestStreamClientDisconnectStillDrainsAndPersists(t *testing.T) {
	provider := &providerMock{events: deltas("one ", "two ", "three")}
	persisted := make(chan *domain.Response, 1)
	repo := &responseRepoMock{
		insertFunc: func(_ context.Context, response *domain.Response) error {
			persisted <- response
			return nil
		},
	}
	svc := New(provider, auth.New(userRepoStub{}, newLogger(), testSecret), repo, newLogger())

	calls := 0
	err := svc.Stream(context.Background(), validInput(), issueToken(t, "validUser1"), func(string) error {
		calls++
		return errors.New("client went away")
	})
	if err != nil {
		t.Fatalf("client disconnect must not fail the stream: %v", err)
	}
	if calls != 1 {
		t.Fatalf("forwarding should stop after the first failed write, got %d calls", calls)
	}

	select {
	case response := <-persisted:
		if response.Text != "one two three" {
			t.Fatalf("full text must still accumulate after disconnect: %q", response.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("persistence branch must fire even after client disconnect")
	}
}

func TestStreamPersistenceFailureIsSwallowed(t *testing.T) {
	provider := &providerMock{events: deltas("text")}
	attempted := make(chan struct{}, 1)
	repo := &responseRepoMock{
		insertFunc: func(_ context.Context, _ *domain.Response) error {
			attempted <- struct{}{}
			return errors.New("store down")
		},
	}
	svc := New(provider, auth.New(userRepoStub{}, newLogger(), testSecret), repo, newLogger())

	if err := svc.Stream(context.Background(), validInput(), issueToken(t, "validUser1"), func(string) error { return nil }); err != nil {
		t.Fatalf("store failure on the persistence branch must never surface: %v", err)
	}
	select {
	case <-attempted:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected persistence attempt")
	}
}
