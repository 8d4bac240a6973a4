package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnearnzone-service/internal/domain"
)

// MemberStore persists members in the "members" collection. Updates
// replace the document only when its version still matches.
type MemberStore struct {
	col *mongo.Collection
}

func NewMemberStore(db *mongo.Database) *MemberStore {
	return &MemberStore{col: db.Collection("members")}
}

// CreateMember inserts or replaces a member document.
func (s *MemberStore) CreateMember(ctx context.Context, member domain.Member) error {
	member.Email = strings.ToLower(member.Email)
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": member.ID}, member, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *MemberStore) GetMember(ctx context.Context, memberID string) (domain.Member, error) {
	return s.findOne(ctx, bson.M{"_id": memberID})
}

func (s *MemberStore) FindMemberByEmail(ctx context.Context, email string) (domain.Member, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *MemberStore) UpdateMember(ctx context.Context, member domain.Member, expectedVersion int64) (domain.Member, error) {
	stored := member.Clone()
	stored.Version = expectedVersion + 1
	stored.Email = strings.ToLower(stored.Email)

	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": member.ID, "version": expectedVersion}, stored)
	if err != nil {
		return domain.Member{}, fmt.Errorf("update member: %w", err)
	}
	if res.MatchedCount == 1 {
		return stored, nil
	}

	n, err := s.col.CountDocuments(ctx, bson.M{"_id": member.ID})
	if err != nil {
		return domain.Member{}, fmt.Errorf("check member: %w", err)
	}
	if n == 0 {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	return domain.Member{}, domain.ErrVersionConflict
}

func (s *MemberStore) findOne(ctx context.Context, filter bson.M) (domain.Member, error) {
	var member domain.Member
	err := s.col.FindOne(ctx, filter).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	if err != nil {
		return domain.Member{}, fmt.Errorf("load member: %w", err)
	}
	return member, nil
}
