package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnearnzone-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if quiz.Reward() != 20 || len(quiz.Questions) != 3 {
		t.Fatalf("unexpected cached quiz %+v", quiz)
	}
}

func TestQuizRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{"quiz-1": sampleQuiz()}),
	}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}

	repo.Invalidate("quiz-1")
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryMissingQuiz(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(nil), time.Minute)
	_, err := repo.GetQuiz(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:     "quiz-1",
		Points: 20,
		Questions: []domain.Question{
			{ID: "q1", Prompt: "What is 2 + 2?"},
			{ID: "q2", Prompt: "What is 3 + 3?"},
			{ID: "q3", Prompt: "What is 4 + 4?"},
		},
	}
}
