package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"learnearnzone-service/internal/domain"
)

// QuizLoader reads quiz documents from the CMS "quizzes" collection.
type QuizLoader struct {
	col *mongo.Collection
}

func NewQuizLoader(db *mongo.Database) *QuizLoader {
	return &QuizLoader{col: db.Collection("quizzes")}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.col.FindOne(ctx, bson.M{"_id": quizID}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}
