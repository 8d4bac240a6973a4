package memory

import (
	"context"
	"strings"
	"sync"

	"learnearnzone-service/internal/domain"
)

// MemberStore is an in-memory implementation of app.MemberRepository.
// Updates are compare-and-swap on the member version.
type MemberStore struct {
	mu      sync.RWMutex
	members map[string]domain.Member
}

func NewMemberStore(members ...domain.Member) *MemberStore {
	s := &MemberStore{members: make(map[string]domain.Member, len(members))}
	for _, m := range members {
		s.members[m.ID] = m.Clone()
	}
	return s
}

// CreateMember inserts or replaces a member document.
func (s *MemberStore) CreateMember(_ context.Context, member domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[member.ID] = member.Clone()
	return nil
}

func (s *MemberStore) GetMember(_ context.Context, memberID string) (domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[memberID]
	if !ok {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	return member.Clone(), nil
}

func (s *MemberStore) FindMemberByEmail(_ context.Context, email string) (domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, member := range s.members {
		if strings.EqualFold(member.Email, email) {
			return member.Clone(), nil
		}
	}
	return domain.Member{}, domain.ErrMemberNotFound
}

func (s *MemberStore) UpdateMember(_ context.Context, member domain.Member, expectedVersion int64) (domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.members[member.ID]
	if !ok {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	if current.Version != expectedVersion {
		return domain.Member{}, domain.ErrVersionConflict
	}
	stored := member.Clone()
	stored.Version = expectedVersion + 1
	s.members[member.ID] = stored
	return stored.Clone(), nil
}
