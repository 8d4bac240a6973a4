package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"learnearnzone-service/internal/domain"
)

// AccountService handles member account lifecycle steps.
type AccountService struct {
	members     MemberRepository
	now         func() time.Time
	maxAttempts int
}

func NewAccountService(members MemberRepository) *AccountService {
	return &AccountService{members: members, now: time.Now, maxAttempts: DefaultMaxCreditAttempts}
}

// NewAccountServiceWithClock is test-only for deterministic expiry checks.
func NewAccountServiceWithClock(members MemberRepository, now func() time.Time) *AccountService {
	s := NewAccountService(members)
	s.now = now
	return s
}

// GetMember returns the member profile for an authenticated identity.
func (s *AccountService) GetMember(ctx context.Context, memberID string) (domain.Member, error) {
	if memberID == "" {
		return domain.Member{}, domain.ErrUnauthorized
	}
	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Member{}, domain.ErrMemberNotFound
		}
		return domain.Member{}, fmt.Errorf("load member %s: %w", memberID, err)
	}
	return member, nil
}

// VerifyEmail marks the member's email as verified when token matches an
// unexpired verification token, and clears the token.
func (s *AccountService) VerifyEmail(ctx context.Context, email, token string) (domain.Member, error) {
	email = strings.TrimSpace(email)
	if email == "" || token == "" {
		return domain.Member{}, domain.ErrInvalidToken
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		member, err := s.members.FindMemberByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Member{}, domain.ErrInvalidToken
			}
			return domain.Member{}, fmt.Errorf("find member by email: %w", err)
		}
		if member.VerificationToken == "" ||
			subtle.ConstantTimeCompare([]byte(member.VerificationToken), []byte(token)) != 1 ||
			member.VerificationTokenExpiry == nil ||
			!member.VerificationTokenExpiry.After(s.now()) {
			return domain.Member{}, domain.ErrInvalidToken
		}

		expected := member.Version
		updated := member.Clone()
		updated.EmailVerified = true
		updated.VerificationToken = ""
		updated.VerificationTokenExpiry = nil

		saved, err := s.members.UpdateMember(ctx, updated, expected)
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return domain.Member{}, fmt.Errorf("update member %s: %w", member.ID, err)
		}
		return saved, nil
	}
	return domain.Member{}, fmt.Errorf("verify email: %w", domain.ErrVersionConflict)
}
