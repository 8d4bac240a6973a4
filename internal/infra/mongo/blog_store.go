package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnearnzone-service/internal/domain"
)

// BlogStore reads the "blogs" and "categories" collections.
// Blogs embed their category as {id, title, slug}.
type BlogStore struct {
	blogs      *mongo.Collection
	categories *mongo.Collection
}

func NewBlogStore(db *mongo.Database) *BlogStore {
	return &BlogStore{
		blogs:      db.Collection("blogs"),
		categories: db.Collection("categories"),
	}
}

type categoryDocument struct {
	ID    string `bson:"_id"`
	Title string `bson:"title"`
	Slug  string `bson:"slug"`
}

func (s *BlogStore) FindCategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	var doc categoryDocument
	err := s.categories.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Category{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("find category: %w", err)
	}
	return domain.Category{ID: doc.ID, Title: doc.Title, Slug: doc.Slug}, nil
}

// ListPublishedWithQuizzes returns matching published blogs, newest first.
func (s *BlogStore) ListPublishedWithQuizzes(ctx context.Context, filter domain.BlogFilter) ([]domain.Blog, error) {
	and := bson.A{
		bson.M{"status": domain.BlogStatusPublished},
		bson.M{"quizzes.0": bson.M{"$exists": true}},
	}
	if filter.CategoryID != "" {
		and = append(and, bson.M{"category.id": filter.CategoryID})
	}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"excerpt": re},
		}})
	}

	cur, err := s.blogs.Find(ctx, bson.M{"$and": and}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("query blogs: %w", err)
	}
	var blogs []domain.Blog
	if err := cur.All(ctx, &blogs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}
	return blogs, nil
}
