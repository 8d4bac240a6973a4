package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"learnearnzone-service/internal/domain"
)

// BlogStore is an in-memory blog catalog.
type BlogStore struct {
	mu         sync.RWMutex
	blogs      []domain.Blog
	categories map[string]domain.Category
}

func NewBlogStore(categories []domain.Category, blogs []domain.Blog) *BlogStore {
	s := &BlogStore{categories: make(map[string]domain.Category, len(categories))}
	for _, c := range categories {
		s.categories[c.Slug] = c
	}
	s.blogs = append(s.blogs, blogs...)
	return s
}

func (s *BlogStore) FindCategoryBySlug(_ context.Context, slug string) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.categories[slug]; ok {
		return c, nil
	}
	return domain.Category{}, domain.ErrNotFound
}

// ListPublishedWithQuizzes returns matching published blogs, newest first.
func (s *BlogStore) ListPublishedWithQuizzes(_ context.Context, filter domain.BlogFilter) ([]domain.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	out := make([]domain.Blog, 0, len(s.blogs))
	for _, b := range s.blogs {
		if b.Status != domain.BlogStatusPublished || len(b.QuizIDs) == 0 {
			continue
		}
		if filter.CategoryID != "" && (b.Category == nil || b.Category.ID != filter.CategoryID) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.Excerpt), search) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
