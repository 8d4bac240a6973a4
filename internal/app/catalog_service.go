package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"learnearnzone-service/internal/domain"
)

const (
	defaultPage     = 1
	defaultPageSize = 25
	defaultReadTime = 5
)

// CatalogService lists blogs that still hold quizzes a member has not completed.
type CatalogService struct {
	members MemberRepository
	blogs   BlogRepository
}

func NewCatalogService(members MemberRepository, blogs BlogRepository) *CatalogService {
	return &CatalogService{members: members, blogs: blogs}
}

// ListAvailableQuizzes returns the requested page of published blogs matching
// the query with at least one quiz missing from the member's completions.
func (s *CatalogService) ListAvailableQuizzes(ctx context.Context, memberID string, q domain.CatalogQuery) (domain.ArticlePage, error) {
	if memberID == "" {
		return domain.ArticlePage{}, domain.ErrUnauthorized
	}
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultPageSize
	}

	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ArticlePage{}, domain.ErrMemberNotFound
		}
		return domain.ArticlePage{}, fmt.Errorf("load member %s: %w", memberID, err)
	}
	completed := member.CompletedQuizSet()

	filter := domain.BlogFilter{Search: strings.TrimSpace(q.Search)}
	if slug := strings.TrimSpace(q.CategorySlug); slug != "" {
		category, err := s.blogs.FindCategoryBySlug(ctx, slug)
		switch {
		case err == nil:
			filter.CategoryID = category.ID
		case errors.Is(err, domain.ErrNotFound):
			// unknown category: listing is not narrowed
		default:
			return domain.ArticlePage{}, fmt.Errorf("find category %s: %w", slug, err)
		}
	}

	blogs, err := s.blogs.ListPublishedWithQuizzes(ctx, filter)
	if err != nil {
		return domain.ArticlePage{}, fmt.Errorf("list blogs: %w", err)
	}

	available := make([]domain.Article, 0, len(blogs))
	for _, blog := range blogs {
		remaining := 0
		for _, quizID := range blog.QuizIDs {
			if quizID == "" {
				continue
			}
			if _, done := completed[quizID]; !done {
				remaining++
			}
		}
		if remaining == 0 {
			continue
		}
		available = append(available, toArticle(blog, remaining))
	}

	total := len(available)
	start, end, totalPages := pageBounds(total, page, limit)

	return domain.ArticlePage{
		Articles:    available[start:end],
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}, nil
}

// pageBounds returns the slice bounds of a 1-indexed page and the page count.
// Pages past the end yield an empty range. Never multiplies past total.
func pageBounds(total, page, limit int) (start, end, pages int) {
	pages = total / limit
	if total%limit != 0 {
		pages++
	}
	if page-1 >= pages {
		return total, total, pages
	}
	start = (page - 1) * limit
	end = start + min(limit, total-start)
	return start, end, pages
}

func toArticle(blog domain.Blog, remaining int) domain.Article {
	readTime := blog.ReadTime
	if readTime <= 0 {
		readTime = defaultReadTime
	}
	return domain.Article{
		ID:               blog.ID,
		Title:            blog.Title,
		Slug:             blog.Slug,
		Excerpt:          blog.Excerpt,
		ReadTime:         readTime,
		TotalQuizzes:     len(blog.QuizIDs),
		RemainingQuizzes: remaining,
		Category:         blog.Category,
	}
}
