package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learnearnzone-service/internal/domain"
)

// MemberStore keeps member documents in a JSONB column guarded by a
// version column; updates only apply when the version still matches.
type MemberStore struct {
	pool *pgxpool.Pool
}

func NewMemberStore(pool *pgxpool.Pool) *MemberStore {
	return &MemberStore{pool: pool}
}

// CreateMember inserts or replaces a member document.
func (s *MemberStore) CreateMember(ctx context.Context, member domain.Member) error {
	data, err := json.Marshal(member)
	if err != nil {
		return fmt.Errorf("marshal member: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO members (id, email, data, version) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET email=EXCLUDED.email, data=EXCLUDED.data, version=EXCLUDED.version`,
		member.ID, nullableEmail(member.Email), data, member.Version)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *MemberStore) GetMember(ctx context.Context, memberID string) (domain.Member, error) {
	return s.scan(s.pool.QueryRow(ctx, `SELECT id, data, version FROM members WHERE id=$1`, memberID))
}

func (s *MemberStore) FindMemberByEmail(ctx context.Context, email string) (domain.Member, error) {
	return s.scan(s.pool.QueryRow(ctx, `SELECT id, data, version FROM members WHERE email=$1`, strings.ToLower(email)))
}

func (s *MemberStore) UpdateMember(ctx context.Context, member domain.Member, expectedVersion int64) (domain.Member, error) {
	stored := member.Clone()
	stored.Version = expectedVersion + 1
	data, err := json.Marshal(stored)
	if err != nil {
		return domain.Member{}, fmt.Errorf("marshal member: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE members SET data=$1, email=$2, version=version+1
		WHERE id=$3 AND version=$4`,
		data, nullableEmail(member.Email), member.ID, expectedVersion)
	if err != nil {
		return domain.Member{}, fmt.Errorf("update member: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return stored, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE id=$1)`, member.ID).Scan(&exists); err != nil {
		return domain.Member{}, fmt.Errorf("check member: %w", err)
	}
	if !exists {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	return domain.Member{}, domain.ErrVersionConflict
}

func (s *MemberStore) scan(row pgx.Row) (domain.Member, error) {
	var (
		id      string
		raw     []byte
		version int64
	)
	err := row.Scan(&id, &raw, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	if err != nil {
		return domain.Member{}, fmt.Errorf("load member: %w", err)
	}
	var member domain.Member
	if err := json.Unmarshal(raw, &member); err != nil {
		return domain.Member{}, fmt.Errorf("unmarshal member: %w", err)
	}
	member.ID = id
	member.Version = version
	return member, nil
}

func nullableEmail(email string) *string {
	if email == "" {
		return nil
	}
	lower := strings.ToLower(email)
	return &lower
}
