package app

import (
	"context"

	"learnearnzone-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// MemberRepository persists member documents with compare-and-swap updates.
// UpdateMember must fail with domain.ErrVersionConflict when the stored
// version differs from expectedVersion, and returns the stored member.
type MemberRepository interface {
	GetMember(ctx context.Context, memberID string) (domain.Member, error)
	FindMemberByEmail(ctx context.Context, email string) (domain.Member, error)
	UpdateMember(ctx context.Context, member domain.Member, expectedVersion int64) (domain.Member, error)
}

// BlogRepository queries the published blog catalog.
type BlogRepository interface {
	FindCategoryBySlug(ctx context.Context, slug string) (domain.Category, error)
	ListPublishedWithQuizzes(ctx context.Context, filter domain.BlogFilter) ([]domain.Blog, error)
}

// EventPublisher forwards completion events to downstream consumers.
type EventPublisher interface {
	PublishQuizCompleted(ctx context.Context, event domain.QuizCompletedEvent) error
}

// RewardObserver receives counters for the crediting workflow.
type RewardObserver interface {
	Credited(points int)
	Duplicate()
	Conflict()
}

type nopPublisher struct{}

func (nopPublisher) PublishQuizCompleted(context.Context, domain.QuizCompletedEvent) error {
	return nil
}

type nopObserver struct{}

func (nopObserver) Credited(int) {}
func (nopObserver) Duplicate()   {}
func (nopObserver) Conflict()    {}
