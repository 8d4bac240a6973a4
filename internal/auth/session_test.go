package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	s := NewSessions("secret", "", time.Hour, false)

	token, err := s.Issue("M1")
	require.NoError(t, err)
	memberID, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "M1", memberID)

	other := NewSessions("other-secret", "", time.Hour, false)
	_, err = other.Parse(token)
	assert.Error(t, err, "signature from another secret must fail")
}

func TestParseRejectsExpired(t *testing.T) {
	s := NewSessions("secret", "", time.Minute, false)
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, err := s.Issue("M1")
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = s.Parse(token)
	assert.Error(t, err)
}

func TestMiddlewareAttachesMember(t *testing.T) {
	s := NewSessions("secret", "sess", time.Hour, false)
	var seen string
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = MemberFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	require.NoError(t, s.SetCookie(rec, "M1"))
	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, "sess", cookie.Name)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "M1", seen)

	token, err := s.Issue("M2")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "M2", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: "forged"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, seen)
}
