package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"learnearnzone-service/internal/app"
	"learnearnzone-service/internal/config"
	"learnearnzone-service/internal/domain"
	"learnearnzone-service/internal/infra/memory"
	infmongo "learnearnzone-service/internal/infra/mongo"
	pgstore "learnearnzone-service/internal/infra/postgres"
	infraredis "learnearnzone-service/internal/infra/redis"
)

// stores bundles the persistence adapters chosen by configuration.
type stores struct {
	quizzes app.QuizRepository
	members app.MemberRepository
	blogs   app.BlogRepository
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	s := &stores{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
	}

	var mongoDB *mongo.Database
	if cfg.Mongo.URI != "" {
		client, err := infmongo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })
		mongoDB = client.Database(cfg.Mongo.Database)
	}

	// Quiz content: CMS document store first, then Postgres, then demo data.
	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	switch {
	case mongoDB != nil:
		loader = infmongo.NewQuizLoader(mongoDB)
	case pool != nil:
		loader = pgstore.NewQuizLoader(pool)
	default:
		logger.Warn("no quiz store configured, serving sample quizzes")
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		s.quizzes = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		s.quizzes = memory.NewQuizRepository(loader, quizTTL)
	}

	switch {
	case mongoDB != nil:
		s.blogs = infmongo.NewBlogStore(mongoDB)
	case pool != nil:
		s.blogs = pgstore.NewBlogStore(pool)
	default:
		s.blogs = memory.NewBlogStore(sampleCategories(), sampleBlogs())
	}

	switch cfg.Members.Backend {
	case config.BackendMemory:
		logger.Warn("members are kept in memory; credits are lost on restart")
		s.members = memory.NewMemberStore(sampleMembers()...)
	case config.BackendRedis:
		if redisClient == nil {
			s.Close()
			return nil, fmt.Errorf("members backend redis requires redis.addr")
		}
		s.members = infraredis.NewMemberStore(redisClient)
	case config.BackendPostgres:
		if pool == nil {
			s.Close()
			return nil, fmt.Errorf("members backend postgres requires postgres.url")
		}
		s.members = pgstore.NewMemberStore(pool)
	case config.BackendMongo:
		if mongoDB == nil {
			s.Close()
			return nil, fmt.Errorf("members backend mongo requires mongo.uri")
		}
		s.members = infmongo.NewMemberStore(mongoDB)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown members backend %q", cfg.Members.Backend)
	}
	logger.Info("stores ready", "members", cfg.Members.Backend, "quiz_cache_redis", redisClient != nil)
	return s, nil
}

// sampleQuizzes provides a minimal set of quiz data for local runs.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:     "quiz-1",
			Title:  "Budgeting basics",
			Points: 20,
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is an emergency fund for?", Options: []domain.Option{
					{ID: "o1", Text: "Holidays"},
					{ID: "o2", Text: "Unexpected expenses"},
				}},
				{ID: "q2", Prompt: "Which comes first, needs or wants?"},
				{ID: "q3", Prompt: "How often should a budget be reviewed?"},
			},
		},
		"quiz-2": {
			ID:        "quiz-2",
			Title:     "Saving habits",
			Questions: []domain.Question{{ID: "q1", Prompt: "Name one automatic saving method."}, {ID: "q2", Prompt: "What is compound interest?"}},
		},
	}
}

func sampleCategories() []domain.Category {
	return []domain.Category{{ID: "cat-1", Title: "Personal finance", Slug: "personal-finance"}}
}

func sampleBlogs() []domain.Blog {
	cat := sampleCategories()[0]
	return []domain.Blog{{
		ID:        "blog-1",
		Title:     "Building your first budget",
		Slug:      "building-your-first-budget",
		Excerpt:   "A practical walkthrough of a monthly budget.",
		ReadTime:  6,
		Status:    domain.BlogStatusPublished,
		Category:  &cat,
		QuizIDs:   []string{"quiz-1", "quiz-2"},
		CreatedAt: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
	}}
}

func sampleMembers() []domain.Member {
	return []domain.Member{{ID: "member-1", Email: "demo@learnearn.zone", Name: "Demo", EmailVerified: true}}
}
