package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnearnzone-service/internal/app"
	"learnearnzone-service/internal/domain"
	"learnearnzone-service/internal/infra/memory"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func TestSubmitCreditsFirstCompletionOnce(t *testing.T) {
	ctx := context.Background()
	members := memory.NewMemberStore(domain.Member{ID: "M1"})
	service := newTestService(members)

	result, err := service.SubmitQuizAttempt(ctx, "M1", submission("Q1", "B1", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Score)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 20, result.PointsEarned)
	require.NotNil(t, result.Member)
	assert.Equal(t, 20, result.Member.Wallet)

	again, err := service.SubmitQuizAttempt(ctx, "M1", submission("Q1", "B1", 3))
	require.ErrorIs(t, err, domain.ErrDuplicateCompletion)
	assert.True(t, again.Duplicate)
	assert.Equal(t, 0, again.PointsEarned)
	assert.Equal(t, 3, again.Total)
	assert.Equal(t, 20, again.Score, "prior record score is reported")
	assert.Nil(t, again.Member)

	stored, err := members.GetMember(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Wallet)
	assert.Len(t, stored.CompletedQuizzes, 1)
	assert.Equal(t, int64(1), stored.Version, "duplicate submission must not write")
}

func TestSubmitDefaultsPoints(t *testing.T) {
	members := memory.NewMemberStore(domain.Member{ID: "M1", Wallet: 5})
	service := newTestService(members)

	result, err := service.SubmitQuizAttempt(context.Background(), "M1", submission("Q2", "B2", 2))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultQuizPoints, result.PointsEarned)
	assert.Equal(t, 15, result.Member.Wallet)
}

func TestSubmitPreconditions(t *testing.T) {
	members := memory.NewMemberStore(domain.Member{ID: "M1"})
	service := newTestService(members)

	cases := []struct {
		name     string
		memberID string
		sub      domain.AttemptSubmission
		want     error
	}{
		{"unauthenticated", "", submission("Q1", "B1", 3), domain.ErrUnauthorized},
		{"unauthenticated with bad payload", "", domain.AttemptSubmission{}, domain.ErrUnauthorized},
		{"empty quiz id", "M1", submission(" ", "B1", 3), domain.ErrInvalidInput},
		{"answers not a sequence", "M1", domain.AttemptSubmission{QuizID: "Q1", BlogID: "B1"}, domain.ErrInvalidInput},
		{"unknown quiz", "M1", submission("nope", "B1", 3), domain.ErrQuizNotFound},
		{"quiz id looked up as sent", "M1", submission(" Q1 ", "B1", 3), domain.ErrQuizNotFound},
		{"quiz without questions", "M1", submission("EMPTY", "B1", 0), domain.ErrQuizNotFound},
		{"too few answers", "M1", submission("Q1", "B1", 2), domain.ErrInvalidInput},
		{"too many answers", "M1", submission("Q1", "B1", 4), domain.ErrInvalidInput},
		{"no answers", "M1", submission("Q1", "B1", 0), domain.ErrInvalidInput},
		{"unknown member", "ghost", submission("Q1", "B1", 3), domain.ErrMemberNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.SubmitQuizAttempt(context.Background(), tc.memberID, tc.sub)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	stored, err := members.GetMember(context.Background(), "M1")
	require.NoError(t, err)
	assert.Zero(t, stored.Wallet)
	assert.Zero(t, stored.Version)
}

func TestSubmitBlogBookkeeping(t *testing.T) {
	ctx := context.Background()
	members := memory.NewMemberStore(domain.Member{ID: "M1"})
	service := newTestService(members)

	_, err := service.SubmitQuizAttempt(ctx, "M1", submission("Q1", "B1", 3))
	require.NoError(t, err)
	result, err := service.SubmitQuizAttempt(ctx, "M1", submission("Q2", "B1", 2))
	require.NoError(t, err)

	assert.Equal(t, 30, result.Member.Wallet)
	assert.Len(t, result.Member.CompletedQuizzes, 2)
	require.Len(t, result.Member.CompletedBlogs, 1)
	assert.Equal(t, "B1", result.Member.CompletedBlogs[0].BlogID)
	assert.Equal(t, 20, result.Member.CompletedBlogs[0].Score)
}

func TestSubmitRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewMemberStore(domain.Member{ID: "M1"})
	racing := &racingStore{MemberStore: inner}
	observer := &countingObserver{}
	service := newTestService(racing, app.WithObserver(observer))

	result, err := service.SubmitQuizAttempt(ctx, "M1", submission("Q1", "B1", 3))
	require.NoError(t, err)
	assert.Equal(t, 1, observer.conflicts)
	assert.Equal(t, 1, observer.credited)
	// The concurrent writer credited Q2 (10) before our Q1 (20) landed.
	assert.Equal(t, 30, result.Member.Wallet)
	assert.Len(t, result.Member.CompletedQuizzes, 2)
}

func TestSubmitConcurrentDuplicatesCreditOnce(t *testing.T) {
	ctx := context.Background()
	members := memory.NewMemberStore(domain.Member{ID: "M1"})
	service := newTestService(members)

	const workers = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		credited   int
		duplicates int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.SubmitQuizAttempt(ctx, "M1", submission("Q1", "B1", 3))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				credited++
			case errors.Is(err, domain.ErrDuplicateCompletion):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, credited)
	assert.Equal(t, workers-1, duplicates)
	stored, err := members.GetMember(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Wallet)
	assert.Len(t, stored.CompletedQuizzes, 1)
}

func TestSubmitGivesUpAfterMaxAttempts(t *testing.T) {
	service := newTestService(alwaysConflicting{memory.NewMemberStore(domain.Member{ID: "M1"})}, app.WithMaxAttempts(2))

	_, err := service.SubmitQuizAttempt(context.Background(), "M1", submission("Q1", "B1", 3))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestSubmitPublishesAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	feed := app.NewWalletFeed()
	updates, cancel := feed.Subscribe("M1")
	defer cancel()
	publisher := &recordingPublisher{err: errors.New("broker down")}
	service := newTestService(memory.NewMemberStore(domain.Member{ID: "M1"}),
		app.WithWalletFeed(feed), app.WithEventPublisher(publisher))

	_, err := service.SubmitQuizAttempt(ctx, "M1", submission("Q1", "B1", 3))
	require.NoError(t, err, "publisher failures do not fail the credit")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, domain.QuizCompletedEvent{
		MemberID: "M1", QuizID: "Q1", BlogID: "B1", PointsEarned: 20, Wallet: 20, CompletedAt: fixedNow,
	}, publisher.events[0])

	select {
	case update := <-updates:
		assert.Equal(t, 20, update.Wallet)
		assert.Equal(t, "Q1", update.QuizID)
	case <-time.After(time.Second):
		t.Fatal("expected wallet update")
	}
}

func newTestService(members app.MemberRepository, opts ...app.Option) *app.CompletionService {
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(testQuizzes()), 5*time.Minute)
	opts = append([]app.Option{app.WithClock(func() time.Time { return fixedNow })}, opts...)
	return app.NewCompletionService(quizzes, members, opts...)
}

func testQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"Q1":    {ID: "Q1", Points: 20, Questions: questions(3)},
		"Q2":    {ID: "Q2", Questions: questions(2)},
		"Q3":    {ID: "Q3", Points: 5, Questions: questions(1)},
		"EMPTY": {ID: "EMPTY", Points: 50},
	}
}

func questions(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{ID: string(rune('a' + i)), Prompt: "?"}
	}
	return out
}

func submission(quizID, blogID string, answers int) domain.AttemptSubmission {
	a := make([]any, answers)
	for i := range a {
		a[i] = "any answer"
	}
	return domain.AttemptSubmission{QuizID: quizID, BlogID: blogID, Answers: a}
}

// racingStore lets a concurrent writer credit another quiz between the
// service's read and its first write.
type racingStore struct {
	*memory.MemberStore
	raced bool
}

func (s *racingStore) UpdateMember(ctx context.Context, member domain.Member, expected int64) (domain.Member, error) {
	if !s.raced {
		s.raced = true
		other, err := s.MemberStore.GetMember(ctx, member.ID)
		if err != nil {
			return domain.Member{}, err
		}
		if err := other.Credit("Q2", "B2", 10, fixedNow); err != nil {
			return domain.Member{}, err
		}
		if _, err := s.MemberStore.UpdateMember(ctx, other, other.Version); err != nil {
			return domain.Member{}, err
		}
	}
	return s.MemberStore.UpdateMember(ctx, member, expected)
}

type alwaysConflicting struct {
	*memory.MemberStore
}

func (alwaysConflicting) UpdateMember(context.Context, domain.Member, int64) (domain.Member, error) {
	return domain.Member{}, domain.ErrVersionConflict
}

type countingObserver struct {
	credited, duplicates, conflicts int
}

func (o *countingObserver) Credited(int) { o.credited++ }
func (o *countingObserver) Duplicate()   { o.duplicates++ }
func (o *countingObserver) Conflict()    { o.conflicts++ }

type recordingPublisher struct {
	events []domain.QuizCompletedEvent
	err    error
}

func (p *recordingPublisher) PublishQuizCompleted(_ context.Context, e domain.QuizCompletedEvent) error {
	p.events = append(p.events, e)
	return p.err
}
