package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"learnearnzone-service/internal/domain"
)

// QuizLoader fetches quiz content from the CMS-backed document store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches quizzes in Redis (hash per quiz) and falls back to a loader on cache miss.
// Layout: HSET quiz:{quizID} title {title} points {points} questions {json}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.fromCache(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.fromCache(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		questions, err := json.Marshal(quiz.Questions)
		if err != nil {
			return quiz, nil
		}
		key := r.key(quizID)
		pipe := r.client.TxPipeline()
		pipe.HSet(ctx, key,
			"title", quiz.Title,
			"points", quiz.Points,
			"questions", string(questions),
		)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		// best-effort: a failed fill only costs another load
		_, _ = pipe.Exec(ctx)

		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate removes a cached quiz, e.g. after the CMS republishes it.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) error {
	return r.client.Del(ctx, r.key(quizID)).Err()
}

func (r *QuizRepository) fromCache(ctx context.Context, quizID string) (domain.Quiz, bool) {
	fields, err := r.client.HGetAll(ctx, r.key(quizID)).Result()
	if err != nil || len(fields) == 0 {
		return domain.Quiz{}, false
	}
	quiz := domain.Quiz{ID: quizID, Title: fields["title"]}
	if p, err := strconv.Atoi(fields["points"]); err == nil {
		quiz.Points = p
	}
	if err := json.Unmarshal([]byte(fields["questions"]), &quiz.Questions); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) key(quizID string) string {
	return "quiz:" + quizID
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
