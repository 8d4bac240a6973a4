package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"learnearnzone-service/internal/domain"
)

// MemberStore keeps member documents as JSON strings and performs
// optimistic updates with WATCH/MULTI/EXEC.
//
//	member:{id}             -> JSON document
//	member:email:{email}    -> member id
type MemberStore struct {
	client *redis.Client
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func NewMemberStore(client *redis.Client) *MemberStore {
	return &MemberStore{client: client}
}

// CreateMember inserts or replaces a member document and its email index.
func (s *MemberStore) CreateMember(ctx context.Context, member domain.Member) error {
	data, err := json.Marshal(member)
	if err != nil {
		return fmt.Errorf("marshal member: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(member.ID), data, 0)
	if member.Email != "" {
		pipe.Set(ctx, s.emailKey(member.Email), member.ID, 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *MemberStore) GetMember(ctx context.Context, memberID string) (domain.Member, error) {
	return s.load(ctx, s.client, memberID)
}

func (s *MemberStore) FindMemberByEmail(ctx context.Context, email string) (domain.Member, error) {
	id, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	if err != nil {
		return domain.Member{}, fmt.Errorf("lookup member email: %w", err)
	}
	return s.load(ctx, s.client, id)
}

func (s *MemberStore) UpdateMember(ctx context.Context, member domain.Member, expectedVersion int64) (domain.Member, error) {
	key := s.key(member.ID)
	stored := member.Clone()
	stored.Version = expectedVersion + 1

	txf := func(tx *redis.Tx) error {
		current, err := s.load(ctx, tx, member.ID)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("marshal member: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.Member{}, domain.ErrVersionConflict
	}
	if err != nil {
		return domain.Member{}, err
	}
	return stored, nil
}

func (s *MemberStore) load(ctx context.Context, c getter, memberID string) (domain.Member, error) {
	raw, err := c.Get(ctx, s.key(memberID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	if err != nil {
		return domain.Member{}, fmt.Errorf("get member: %w", err)
	}
	var member domain.Member
	if err := json.Unmarshal(raw, &member); err != nil {
		return domain.Member{}, fmt.Errorf("unmarshal member: %w", err)
	}
	return member, nil
}

func (s *MemberStore) key(memberID string) string {
	return "member:" + memberID
}

func (s *MemberStore) emailKey(email string) string {
	return "member:email:" + strings.ToLower(email)
}
