package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnearnzone-service/internal/domain"
)

func TestMemberStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := NewMemberStore(domain.Member{ID: "m1", Email: "ada@example.com"})

	member, err := store.GetMember(ctx, "m1")
	require.NoError(t, err)
	require.NoError(t, member.Credit("q1", "b1", 10, time.Now()))

	saved, err := store.UpdateMember(ctx, member, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
	assert.Equal(t, 10, saved.Wallet)

	// A writer holding the stale version loses.
	_, err = store.UpdateMember(ctx, member, 0)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	stored, err := store.GetMember(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Wallet)
	assert.Len(t, stored.CompletedQuizzes, 1)
}

func TestMemberStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemberStore(domain.Member{ID: "m1"})

	member, err := store.GetMember(ctx, "m1")
	require.NoError(t, err)
	member.Wallet = 500
	member.CompletedQuizzes = append(member.CompletedQuizzes, domain.QuizCompletion{QuizID: "x"})

	stored, err := store.GetMember(ctx, "m1")
	require.NoError(t, err)
	assert.Zero(t, stored.Wallet)
	assert.Empty(t, stored.CompletedQuizzes)
}

func TestMemberStoreLookups(t *testing.T) {
	ctx := context.Background()
	store := NewMemberStore(domain.Member{ID: "m1", Email: "Ada@Example.com"})

	found, err := store.FindMemberByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "m1", found.ID)

	_, err = store.GetMember(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.FindMemberByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	_, err = store.UpdateMember(ctx, domain.Member{ID: "missing"}, 0)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}
