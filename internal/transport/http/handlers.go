package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"learnearnzone-service/internal/app"
	"learnearnzone-service/internal/auth"
	"learnearnzone-service/internal/domain"
)

// API exposes the reward use cases as JSON endpoints.
type API struct {
	completions *app.CompletionService
	catalog     *app.CatalogService
	accounts    *app.AccountService
	sessions    *auth.Sessions
	logger      *slog.Logger
	appURL      string
}

type attemptRequest struct {
	QuizID  json.RawMessage `json:"quizId"`
	BlogID  string          `json:"blogId"`
	Answers json.RawMessage `json:"answers"`
}

type attemptResult struct {
	Score        int         `json:"score"`
	Total        int         `json:"total"`
	PointsEarned int         `json:"pointsEarned"`
	Member       *memberView `json:"member,omitempty"`
}

type listRequest struct {
	SearchTerm   string  `json:"searchTerm"`
	CategorySlug *string `json:"categorySlug"`
	Page         int     `json:"page"`
	Limit        int     `json:"limit"`
	MemberID     string  `json:"memberId"`
}

// memberView omits verification secrets from responses.
type memberView struct {
	ID               string                  `json:"id"`
	Email            string                  `json:"email,omitempty"`
	Name             string                  `json:"name,omitempty"`
	Wallet           int                     `json:"wallet"`
	CompletedQuizIDs []domain.QuizCompletion `json:"completedQuizIds"`
	CompletedBlogs   []domain.BlogCompletion `json:"completedBlogs"`
	EmailVerified    bool                    `json:"emailVerified"`
}

func newMemberView(m domain.Member) *memberView {
	v := &memberView{
		ID:               m.ID,
		Email:            m.Email,
		Name:             m.Name,
		Wallet:           m.Wallet,
		CompletedQuizIDs: m.CompletedQuizzes,
		CompletedBlogs:   m.CompletedBlogs,
		EmailVerified:    m.EmailVerified,
	}
	if v.CompletedQuizIDs == nil {
		v.CompletedQuizIDs = []domain.QuizCompletion{}
	}
	if v.CompletedBlogs == nil {
		v.CompletedBlogs = []domain.BlogCompletion{}
	}
	return v
}

type errorResponse struct {
	Error  string         `json:"error"`
	Result *attemptResult `json:"result,omitempty"`
}

// SubmitQuizAttempt handles POST /api/quiz-attempts.
func (a *API) SubmitQuizAttempt(w http.ResponseWriter, r *http.Request) {
	memberID := auth.MemberFromContext(r.Context())

	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if memberID == "" {
			a.writeError(w, domain.ErrUnauthorized)
			return
		}
		a.writeError(w, domain.InvalidInput("Invalid request body"))
		return
	}

	var quizID string
	_ = json.Unmarshal(req.QuizID, &quizID) // non-strings leave quizID empty
	var answers []any
	if isJSONArray(req.Answers) {
		if err := json.Unmarshal(req.Answers, &answers); err != nil {
			answers = nil
		}
	}

	result, err := a.completions.SubmitQuizAttempt(r.Context(), memberID, domain.AttemptSubmission{
		QuizID:  quizID,
		BlogID:  req.BlogID,
		Answers: answers,
	})
	if errors.Is(err, domain.ErrDuplicateCompletion) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "Quiz already completed",
			Result: &attemptResult{
				Score:        result.Score,
				Total:        result.Total,
				PointsEarned: 0,
			},
		})
		return
	}
	if err != nil {
		a.writeError(w, err)
		return
	}

	out := attemptResult{Score: result.Score, Total: result.Total, PointsEarned: result.PointsEarned}
	if result.Member != nil {
		out.Member = newMemberView(*result.Member)
	}
	writeJSON(w, http.StatusOK, map[string]attemptResult{"result": out})
}

// ListAvailableQuizzes handles POST /api/get-all-blogs-with-quizzes.
func (a *API) ListAvailableQuizzes(w http.ResponseWriter, r *http.Request) {
	memberID := auth.MemberFromContext(r.Context())

	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if memberID == "" {
			a.writeError(w, domain.ErrUnauthorized)
			return
		}
		a.writeError(w, domain.InvalidInput("Invalid request body"))
		return
	}
	if req.MemberID != "" && req.MemberID != memberID {
		a.writeError(w, domain.ErrUnauthorized)
		return
	}

	q := domain.CatalogQuery{Search: req.SearchTerm, Page: req.Page, Limit: req.Limit}
	if req.CategorySlug != nil {
		q.CategorySlug = *req.CategorySlug
	}
	page, err := a.catalog.ListAvailableQuizzes(r.Context(), memberID, q)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetMe handles GET /api/members/me.
func (a *API) GetMe(w http.ResponseWriter, r *http.Request) {
	member, err := a.accounts.GetMember(r.Context(), auth.MemberFromContext(r.Context()))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberView(member))
}

// VerifyEmail handles GET /api/auth/verify-email and always redirects.
func (a *API) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	email := r.URL.Query().Get("email")
	if token == "" || email == "" {
		a.redirectLogin(w, r, "Invalid verification link")
		return
	}

	member, err := a.accounts.VerifyEmail(r.Context(), email, token)
	if errors.Is(err, domain.ErrInvalidToken) {
		a.redirectLogin(w, r, "Invalid or expired token")
		return
	}
	if err != nil {
		a.logger.Error("email verification failed", "email", email, "err", err)
		a.redirectLogin(w, r, "Verification failed")
		return
	}
	if err := a.sessions.SetCookie(w, member.ID); err != nil {
		a.logger.Error("issue session", "member", member.ID, "err", err)
		a.redirectLogin(w, r, "Verification failed")
		return
	}
	http.Redirect(w, r, a.appURL+"/dashboard", http.StatusFound)
}

func (a *API) redirectLogin(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, a.appURL+"/auth/login?error="+url.QueryEscape(msg), http.StatusFound)
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Quiz not found"})
	case errors.Is(err, domain.ErrMemberNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Member not found"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	default:
		a.logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func isJSONArray(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
