package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learnearnzone-service/internal/domain"
)

// BlogStore reads the published blog catalog.
type BlogStore struct {
	pool *pgxpool.Pool
}

func NewBlogStore(pool *pgxpool.Pool) *BlogStore {
	return &BlogStore{pool: pool}
}

func (s *BlogStore) FindCategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	var c domain.Category
	err := s.pool.QueryRow(ctx, `SELECT id, title, slug FROM categories WHERE slug=$1`, slug).
		Scan(&c.ID, &c.Title, &c.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

// ListPublishedWithQuizzes returns matching published blogs, newest first.
func (s *BlogStore) ListPublishedWithQuizzes(ctx context.Context, filter domain.BlogFilter) ([]domain.Blog, error) {
	var (
		where = []string{"b.status = $1", "cardinality(b.quiz_ids) > 0"}
		args  = []interface{}{domain.BlogStatusPublished}
	)
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf("b.category_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, containsPattern(filter.Search))
		where = append(where, fmt.Sprintf(`(b.title ILIKE $%d ESCAPE '\' OR b.excerpt ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}

	query := `
		SELECT b.id, b.title, b.slug, b.excerpt, b.read_time, b.status, b.quiz_ids, b.created_at,
		       c.id, c.title, c.slug
		FROM blogs b
		LEFT JOIN categories c ON c.id = b.category_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY b.created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query blogs: %w", err)
	}
	defer rows.Close()

	var blogs []domain.Blog
	for rows.Next() {
		var (
			b                   domain.Blog
			catID, catTitle, cs *string
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Slug, &b.Excerpt, &b.ReadTime, &b.Status, &b.QuizIDs, &b.CreatedAt,
			&catID, &catTitle, &cs); err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		if catID != nil {
			b.Category = &domain.Category{ID: *catID, Title: deref(catTitle), Slug: deref(cs)}
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches term literally anywhere in the column.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
