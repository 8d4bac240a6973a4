package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"learnearnzone-service/internal/domain"
)

// DefaultMaxCreditAttempts bounds the read-check-write cycle under contention.
const DefaultMaxCreditAttempts = 5

// CompletionService credits members for fully answered quizzes.
type CompletionService struct {
	quizzes     QuizRepository
	members     MemberRepository
	events      EventPublisher
	observer    RewardObserver
	feed        *WalletFeed
	logger      *slog.Logger
	now         func() time.Time
	maxAttempts int
}

// Option configures a CompletionService.
type Option func(*CompletionService)

func WithEventPublisher(p EventPublisher) Option {
	return func(s *CompletionService) { s.events = p }
}

func WithObserver(o RewardObserver) Option {
	return func(s *CompletionService) { s.observer = o }
}

func WithWalletFeed(f *WalletFeed) Option {
	return func(s *CompletionService) { s.feed = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *CompletionService) { s.logger = l }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *CompletionService) { s.now = now }
}

func WithMaxAttempts(n int) Option {
	return func(s *CompletionService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewCompletionService(quizzes QuizRepository, members MemberRepository, opts ...Option) *CompletionService {
	s := &CompletionService{
		quizzes:     quizzes,
		members:     members,
		events:      nopPublisher{},
		observer:    nopObserver{},
		logger:      slog.Default(),
		now:         time.Now,
		maxAttempts: DefaultMaxCreditAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitQuizAttempt validates a submission and credits the quiz reward once
// per member. A repeated submission returns the prior result together with
// domain.ErrDuplicateCompletion and leaves the member untouched.
func (s *CompletionService) SubmitQuizAttempt(ctx context.Context, memberID string, sub domain.AttemptSubmission) (domain.AttemptResult, error) {
	if memberID == "" {
		return domain.AttemptResult{}, domain.ErrUnauthorized
	}
	quizID := sub.QuizID
	if strings.TrimSpace(quizID) == "" {
		return domain.AttemptResult{}, domain.InvalidInput("Invalid quiz ID")
	}
	if sub.Answers == nil {
		return domain.AttemptResult{}, domain.InvalidInput("Invalid answers format")
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AttemptResult{}, domain.ErrQuizNotFound
		}
		return domain.AttemptResult{}, fmt.Errorf("load quiz %s: %w", quizID, err)
	}
	if len(quiz.Questions) == 0 {
		return domain.AttemptResult{}, domain.ErrQuizNotFound
	}
	total := len(quiz.Questions)
	if len(sub.Answers) != total {
		return domain.AttemptResult{}, domain.InvalidInput("All questions must be answered")
	}

	points := quiz.Reward()
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		member, err := s.members.GetMember(ctx, memberID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.AttemptResult{}, domain.ErrMemberNotFound
			}
			return domain.AttemptResult{}, fmt.Errorf("load member %s: %w", memberID, err)
		}

		if prior, ok := member.CompletedQuiz(quizID); ok {
			s.observer.Duplicate()
			return domain.AttemptResult{
				Score:     prior.Score,
				Total:     total,
				Duplicate: true,
			}, domain.ErrDuplicateCompletion
		}

		now := s.now()
		expected := member.Version
		updated := member.Clone()
		if err := updated.Credit(quizID, sub.BlogID, points, now); err != nil {
			return domain.AttemptResult{}, err
		}

		saved, err := s.members.UpdateMember(ctx, updated, expected)
		if errors.Is(err, domain.ErrVersionConflict) {
			s.observer.Conflict()
			s.logger.Debug("member changed during credit, retrying",
				"member", memberID, "quiz", quizID, "attempt", attempt)
			continue
		}
		if err != nil {
			return domain.AttemptResult{}, fmt.Errorf("update member %s: %w", memberID, err)
		}

		s.afterCredit(ctx, saved, quizID, sub.BlogID, points, now)
		return domain.AttemptResult{
			Score:        total,
			Total:        total,
			PointsEarned: points,
			Member:       &saved,
		}, nil
	}
	return domain.AttemptResult{}, fmt.Errorf("credit quiz %s after %d attempts: %w", quizID, s.maxAttempts, domain.ErrVersionConflict)
}

func (s *CompletionService) afterCredit(ctx context.Context, member domain.Member, quizID, blogID string, points int, now time.Time) {
	s.observer.Credited(points)
	s.logger.Info("quiz completed", "quiz", quizID, "member", member.ID, "points", points)

	if err := s.events.PublishQuizCompleted(ctx, domain.QuizCompletedEvent{
		MemberID:     member.ID,
		QuizID:       quizID,
		BlogID:       blogID,
		PointsEarned: points,
		Wallet:       member.Wallet,
		CompletedAt:  now,
	}); err != nil {
		s.logger.Warn("publish quiz completed event", "quiz", quizID, "member", member.ID, "err", err)
	}

	if s.feed != nil {
		s.feed.Publish(domain.WalletUpdate{
			MemberID:     member.ID,
			QuizID:       quizID,
			Wallet:       member.Wallet,
			PointsEarned: points,
			UpdatedAt:    now,
		})
	}
}
